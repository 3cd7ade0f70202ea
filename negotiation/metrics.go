package negotiation

import (
	"slices"

	"auto-uc2-dashboard/models"
)

// MergeMetrics folds one update into the live panel: last write wins for the
// scalars, key points are a set union in first-seen order, and the log keeps
// only the newest logCap lines.
func MergeMetrics(cur models.LiveMetrics, upd models.MetricsUpdate, logCap int) models.LiveMetrics {
	out := models.LiveMetrics{
		Sentiment: cur.Sentiment,
		Emotion:   cur.Emotion,
		KeyPoints: slices.Clone(cur.KeyPoints),
		Log:       slices.Clone(cur.Log),
	}
	if upd.Sentiment != nil {
		out.Sentiment = clampSentiment(*upd.Sentiment)
	}
	if upd.Emotion != "" {
		out.Emotion = upd.Emotion
	}
	for _, kp := range upd.KeyPoints {
		if kp != "" && !slices.Contains(out.KeyPoints, kp) {
			out.KeyPoints = append(out.KeyPoints, kp)
		}
	}
	out.Log = append(out.Log, upd.Log...)
	if logCap > 0 && len(out.Log) > logCap {
		out.Log = slices.Clone(out.Log[len(out.Log)-logCap:])
	}
	return out
}

func clampSentiment(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
