package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/config"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/ingest"
)

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import log entries into the store",
	Long: `Import log entries into the store.

Examples:
  pie import --file ./entries.json
  pie import --pdf ./journal.pdf --date 2025-06-02
  pie import --html ./export.html --date 2025-06-02 --city Amsterdam`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		pdfPath, _ := cmd.Flags().GetString("pdf")
		htmlPath, _ := cmd.Flags().GetString("html")
		date, _ := cmd.Flags().GetString("date")
		city, _ := cmd.Flags().GetString("city")

		if file == "" && pdfPath == "" && htmlPath == "" {
			return fmt.Errorf("one of --file, --pdf, or --html is required")
		}

		var payload []byte
		switch {
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			payload = data
		case pdfPath != "":
			text, err := ingest.ExtractPDF(pdfPath)
			if err != nil {
				return fmt.Errorf("extracting PDF: %w", err)
			}
			payload = singleEntryPayload(text, date, city)
		case htmlPath != "":
			f, err := os.Open(htmlPath)
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			text, err := ingest.ExtractHTML(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("extracting HTML: %w", err)
			}
			payload = singleEntryPayload(text, date, city)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postRaw(cmd.Context(), "/entries", payload)
		if err != nil {
			return err
		}

		var result struct {
			Imported int `json:"imported"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Imported %d entries", result.Imported)
		return nil
	},
}

// singleEntryPayload wraps extracted document text into a one-entry import
// body, defaulting the date to today.
func singleEntryPayload(text, date, city string) []byte {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	entry := map[string]string{
		"date": date,
		"text": strings.TrimSpace(text),
	}
	if city != "" {
		entry["location_city"] = city
	}
	data, _ := json.Marshal([]map[string]string{entry})
	return data
}

func init() {
	importCmd.Flags().String("file", "", "JSON file of entries to import")
	importCmd.Flags().String("pdf", "", "PDF file to extract and import as one entry")
	importCmd.Flags().String("html", "", "HTML file to extract and import as one entry")
	importCmd.Flags().String("date", "", "entry date for --pdf/--html imports (YYYY-MM-DD, default today)")
	importCmd.Flags().String("city", "", "location city for --pdf/--html imports")
}

// --- entries ---

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List stored log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/entries")
		if err != nil {
			return err
		}

		var entries []struct {
			ID       string `json:"id"`
			Date     string `json:"date"`
			Text     string `json:"text"`
			Embedded bool   `json:"embedded"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}

		for _, e := range entries {
			text := e.Text
			if len(text) > 60 {
				text = text[:60] + "..."
			}
			mark := " "
			if e.Embedded {
				mark = colorize(colorGreen, "*")
			}
			fmt.Printf("%s %s  %s  %s\n", mark, colorize(colorCyan, e.ID[:8]), e.Date, text)
		}
		return nil
	},
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/entries/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted entry %s", args[0])
		return nil
	},
}

func init() {
	entriesCmd.AddCommand(entriesDeleteCmd)
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Running analysis...")
		resp, err := client.post(cmd.Context(), "/analyze", nil)
		if err != nil {
			return err
		}

		var result struct {
			RunID  string          `json:"run_id"`
			Report json.RawMessage `json:"report"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		var summary struct {
			DayCount  int      `json:"day_count"`
			Themes    []any    `json:"themes"`
			Weeks     []any    `json:"weeks"`
			Anomalies []any    `json:"anomalies"`
			Warnings  []string `json:"warnings"`
			Insights  struct {
				Macro string `json:"macro"`
			} `json:"insights"`
		}
		if err := json.Unmarshal(result.Report, &summary); err != nil {
			return err
		}

		if output != "" {
			if err := os.WriteFile(output, result.Report, 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}

		printSuccess("Run %s complete", result.RunID)
		printStatus("Days", "%d", summary.DayCount)
		printStatus("Themes", "%d", len(summary.Themes))
		printStatus("Weeks", "%d", len(summary.Weeks))
		printStatus("Anomalies", "%d", len(summary.Anomalies))
		for _, warn := range summary.Warnings {
			printWarning("%s", warn)
		}
		if summary.Insights.Macro != "" {
			fmt.Printf("\n%s\n", summary.Insights.Macro)
		}
		if output != "" {
			printSuccess("Report written to %s", output)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("output", "", "write the full report JSON to a file")
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest analysis report",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		runID, _ := cmd.Flags().GetString("run")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/runs/latest"
		if runID != "" {
			path = "/runs/" + runID
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var run struct {
			ID        string          `json:"id"`
			CreatedAt string          `json:"created_at"`
			Report    json.RawMessage `json:"report"`
		}
		if err := decodeJSON(resp, &run); err != nil {
			return err
		}

		if asJSON {
			var pretty any
			if err := json.Unmarshal(run.Report, &pretty); err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(pretty)
		}

		var report struct {
			DayCount int `json:"day_count"`
			Themes   []struct {
				Label    string   `json:"label"`
				Keywords []string `json:"keywords"`
			} `json:"themes"`
			Anomalies []struct {
				Date        string `json:"date"`
				Description string `json:"description"`
			} `json:"anomalies"`
			Cycle *struct {
				Description string `json:"description"`
			} `json:"cycle"`
			Insights struct {
				Micro       []string `json:"micro"`
				Macro       string   `json:"macro"`
				Predictive  string   `json:"predictive"`
				SafetyNotes []string `json:"safety_notes"`
			} `json:"insights"`
		}
		if err := json.Unmarshal(run.Report, &report); err != nil {
			return err
		}

		title := "Latest report"
		if runID != "" {
			title = "Report"
		}
		fmt.Printf("%s (run %s, %d days)\n", colorize(colorBold, title), run.ID[:8], report.DayCount)

		if len(report.Themes) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Themes"))
			for _, th := range report.Themes {
				fmt.Printf("  %s (%s)\n", th.Label, strings.Join(th.Keywords, ", "))
			}
		}

		if len(report.Insights.Micro) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Weekly"))
			for _, m := range report.Insights.Micro {
				fmt.Printf("  %s\n", m)
			}
		}

		if report.Insights.Macro != "" {
			fmt.Printf("\n%s\n  %s\n", colorize(colorBold, "Overall"), report.Insights.Macro)
		}
		if report.Cycle != nil {
			fmt.Printf("  %s\n", report.Cycle.Description)
		}
		if report.Insights.Predictive != "" {
			fmt.Printf("\n%s\n  %s\n", colorize(colorBold, "Outlook"), report.Insights.Predictive)
		}

		if len(report.Anomalies) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Unusual days"))
			for _, a := range report.Anomalies {
				fmt.Printf("  %s  %s\n", a.Date, a.Description)
			}
		}

		if len(report.Insights.SafetyNotes) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Notes"))
			for _, n := range report.Insights.SafetyNotes {
				fmt.Printf("  %s\n", n)
			}
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().Bool("json", false, "print the raw report JSON")
	reportCmd.Flags().String("run", "", "show a specific run instead of the latest")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
