package scoring

import (
	"math"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Tally accumulates score entries. Percentage is weighted by question
// count, so an attempt with more questions weighs proportionally more.
type Tally struct {
	Score    int `json:"score"`
	Total    int `json:"total"`
	Attempts int `json:"attempts"`
}

// Add folds one entry into the tally
func (t Tally) Add(e models.ScoreEntry) Tally {
	t.Score += e.Score
	t.Total += e.Total
	t.Attempts++
	return t
}

// Merge combines two tallies of disjoint entry sets
func (t Tally) Merge(o Tally) Tally {
	return Tally{
		Score:    t.Score + o.Score,
		Total:    t.Total + o.Total,
		Attempts: t.Attempts + o.Attempts,
	}
}

// Percentage returns the aggregate percentage of the tally
func (t Tally) Percentage() int {
	return Percentage(t.Score, t.Total)
}

// TallyOf tallies every entry
func TallyOf(entries []models.ScoreEntry) Tally {
	var t Tally
	for _, e := range entries {
		t = t.Add(e)
	}
	return t
}

// ByTopic groups entries by topic id
func ByTopic(entries []models.ScoreEntry) map[string]Tally {
	out := make(map[string]Tally)
	for _, e := range entries {
		out[e.Topic] = out[e.Topic].Add(e)
	}
	return out
}

// ByDifficulty groups entries by difficulty
func ByDifficulty(entries []models.ScoreEntry) map[models.Difficulty]Tally {
	out := make(map[models.Difficulty]Tally)
	for _, e := range entries {
		out[e.Difficulty] = out[e.Difficulty].Add(e)
	}
	return out
}

// PersonalBest returns the highest score/total*100 among entries for the
// topic and difficulty, or 0 when there are none.
func PersonalBest(entries []models.ScoreEntry, topicID string, difficulty models.Difficulty) float64 {
	best := 0.0
	for _, e := range entries {
		if e.Topic != topicID || e.Difficulty != difficulty {
			continue
		}
		if r := Ratio(e.Score, e.Total); r > best {
			best = r
		}
	}
	return best
}

// IsNewRecord reports whether an attempt at percentage beats or ties best.
// Ties count as a new record. The attempt's percentage is the rounded one
// shown to the candidate while best keeps its fraction, so repeating 1/3
// (33 against 33.33) is not a record.
func IsNewRecord(percentage int, best float64) bool {
	return float64(percentage) >= best
}

// Summary is the dashboard view of a score history
type Summary struct {
	Attempts       int                              `json:"attempts"`
	TotalCorrect   int                              `json:"totalCorrect"`
	TotalQuestions int                              `json:"totalQuestions"`
	Average        int                              `json:"average"`
	AverageTime    int                              `json:"averageTime"` // seconds, over entries that carry one
	Ratings        map[models.PerformanceRating]int `json:"ratings"`
	ByTopic        map[string]Tally                 `json:"byTopic"`
	ByDifficulty   map[models.Difficulty]Tally      `json:"byDifficulty"`
}

// Summarize builds the dashboard summary of entries
func Summarize(entries []models.ScoreEntry) Summary {
	all := TallyOf(entries)
	s := Summary{
		Attempts:       all.Attempts,
		TotalCorrect:   all.Score,
		TotalQuestions: all.Total,
		Average:        all.Percentage(),
		Ratings: map[models.PerformanceRating]int{
			models.RatingExcellent: 0,
			models.RatingGood:      0,
			models.RatingAverage:   0,
			models.RatingPoor:      0,
		},
		ByTopic:      ByTopic(entries),
		ByDifficulty: ByDifficulty(entries),
	}

	timed, seconds := 0, 0
	for _, e := range entries {
		if e.TimeTaken != nil && *e.TimeTaken > 0 {
			timed++
			seconds += *e.TimeTaken
		}
		if e.PerformanceRating != "" {
			s.Ratings[e.PerformanceRating]++
		}
	}
	if timed > 0 {
		s.AverageTime = int(math.Round(float64(seconds) / float64(timed)))
	}
	return s
}
