package sentiment

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"positive only", "A great day, felt accomplished and grateful.", 1},
		{"negative only", "Exhausted and anxious, deadline pressure all day.", -1},
		{"no lexicon words", "Went to the office. Ate lunch.", 0},
		{"empty", "", 0},
		{"mixed leans positive", "Tough morning but a great and fun evening.", 1.0 / 3.0},
		{"case insensitive", "GREAT day", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.text)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Score(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	texts := []string{
		"great great stress tired happy love worry",
		"stress stress stress",
		"good",
	}
	for _, text := range texts {
		s := Score(text)
		if s < -1 || s > 1 {
			t.Errorf("Score(%q) = %v, out of [-1, 1]", text, s)
		}
	}
}
