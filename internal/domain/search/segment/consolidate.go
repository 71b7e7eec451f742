package segment

import (
	"sort"

	"github.com/kailas-cloud/vidsearch/internal/domain/search/result"
)

// Consolidate groups hits by video, expands each into [t - w/2, t + w/2]
// (start clamped at 0) and joins intervals whose gap is at most mergeGap.
// Segments are returned by best score descending; equal scores keep the order
// in which they were emitted (videos in first-appearance order, then time).
//
// window and mergeGap are expected to be validated by the caller; window 0
// produces point segments.
func Consolidate(hits []result.Result, window, mergeGap float64) ([]Segment, Summary) {
	if len(hits) == 0 {
		return []Segment{}, Summarize(nil)
	}

	order, groups := groupByVideo(hits)

	segments := make([]Segment, 0, len(hits))
	for _, videoID := range order {
		segments = append(segments, sweep(groups[videoID], window, mergeGap)...)
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].bestScore > segments[j].bestScore
	})

	return segments, Summarize(segments)
}

// groupByVideo buckets hits per video, preserving both the order of first
// appearance and the input order inside each bucket.
func groupByVideo(hits []result.Result) ([]string, map[string][]result.Result) {
	var order []string
	groups := make(map[string][]result.Result)
	for _, h := range hits {
		id := h.VideoID()
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], h)
	}
	return order, groups
}

// sweep merges the hits of a single video.
func sweep(hits []result.Result, window, mergeGap float64) []Segment {
	sorted := make([]result.Result, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp() < sorted[j].Timestamp()
	})

	half := window / 2
	var out []Segment

	cur := open(sorted[0], half)
	for _, next := range sorted[1:] {
		start, end := interval(next.Timestamp(), half)
		if cur.end >= start-mergeGap {
			cur.end = max(cur.end, end)
			cur.frameCount++
			// strict: the first-seen frame keeps its place on ties
			if next.Score() > cur.bestScore {
				cur.bestScore = next.Score()
				cur.bestFrame = next
			}
			continue
		}
		out = append(out, cur)
		cur = open(next, half)
	}
	return append(out, cur)
}

func open(hit result.Result, half float64) Segment {
	start, end := interval(hit.Timestamp(), half)
	return Segment{
		videoID:    hit.VideoID(),
		start:      start,
		end:        end,
		bestScore:  hit.Score(),
		bestFrame:  hit,
		frameCount: 1,
	}
}

func interval(t, half float64) (float64, float64) {
	return max(0, t-half), t + half
}
