package video

import (
	"fmt"
	"strconv"

	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
)

// videoToHash converts a domain Video to a map for HSET.
func videoToHash(v domvideo.Video) map[string]string {
	meta := v.Meta()
	return map[string]string{
		"id":             v.ID(),
		"filename":       v.Filename(),
		"path":           v.Path(),
		"duration":       strconv.FormatFloat(meta.Duration, 'f', -1, 64),
		"fps":            strconv.FormatFloat(meta.FPS, 'f', -1, 64),
		"width":          strconv.Itoa(meta.Width),
		"height":         strconv.Itoa(meta.Height),
		"total_frames":   strconv.Itoa(meta.TotalFrames),
		"frames_indexed": strconv.Itoa(v.FramesIndexed()),
		"created_at":     strconv.FormatInt(v.CreatedAt(), 10),
	}
}

// videoFromHash hydrates a domain Video from an HGETALL result map.
// Missing numeric fields read as zero; malformed ones are an error.
func videoFromHash(m map[string]string) (domvideo.Video, error) {
	id := m["id"]
	if id == "" {
		return domvideo.Video{}, fmt.Errorf("missing id")
	}

	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domvideo.Video{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var meta domvideo.Meta
	if meta.Duration, err = parseFloat(m, "duration"); err != nil {
		return domvideo.Video{}, err
	}
	if meta.FPS, err = parseFloat(m, "fps"); err != nil {
		return domvideo.Video{}, err
	}
	if meta.Width, err = parseInt(m, "width"); err != nil {
		return domvideo.Video{}, err
	}
	if meta.Height, err = parseInt(m, "height"); err != nil {
		return domvideo.Video{}, err
	}
	if meta.TotalFrames, err = parseInt(m, "total_frames"); err != nil {
		return domvideo.Video{}, err
	}
	indexed, err := parseInt(m, "frames_indexed")
	if err != nil {
		return domvideo.Video{}, err
	}

	return domvideo.Reconstruct(id, m["filename"], m["path"], meta, indexed, createdAt), nil
}

func parseFloat(m map[string]string, key string) (float64, error) {
	s, ok := m[key]
	if !ok || s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseInt(m map[string]string, key string) (int, error) {
	s, ok := m[key]
	if !ok || s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
