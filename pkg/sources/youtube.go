package sources

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
)

const (
	maxDescriptionChars = 3000
	maxComments         = 5
	maxCommentChars     = 300
)

// videoMetadata is the cached metadata-stage artifact for a YouTube workout.
type videoMetadata struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	ChannelTitle       string   `json:"channelTitle"`
	ChannelDescription string   `json:"channelDescription"`
	Tags               []string `json:"tags"`
	PublishedAt        string   `json:"publishedAt"`
	Duration           string   `json:"duration"` // ISO-8601
	ViewCount          uint64   `json:"viewCount"`
	LikeCount          uint64   `json:"likeCount"`
	ThumbnailURL       string   `json:"thumbnailUrl"`
	Comments           []string `json:"comments"`
}

// YouTubeAdapter normalizes single-video watch URLs via the YouTube Data API.
type YouTubeAdapter struct {
	Service *bootstrap.Service

	// newAPI is swappable for tests.
	newAPI func(ctx context.Context, apiKey string) (*youtube.Service, error)
}

func init() {
	Register(NewYouTubeAdapter())
}

func NewYouTubeAdapter() *YouTubeAdapter {
	return &YouTubeAdapter{
		newAPI: func(ctx context.Context, apiKey string) (*youtube.Service, error) {
			return youtube.NewService(ctx, option.WithAPIKey(apiKey))
		},
	}
}

func (a *YouTubeAdapter) SetService(service *bootstrap.Service) {
	a.Service = service
}

func (a *YouTubeAdapter) Name() string { return SourceYouTube }

func (a *YouTubeAdapter) Matches(raw string) bool { return IsYouTubeURL(raw) }

func (a *YouTubeAdapter) WorkoutID(raw string) string {
	return ExtractVideoID(strings.TrimSpace(raw))
}

func (a *YouTubeAdapter) BuildContext(ctx context.Context, raw, workoutID string) (*ContextBundle, error) {
	url := strings.TrimSpace(raw)

	var meta videoMetadata
	if !a.Service.Cache.Get(taxonomy.StageMetadata, workoutID, &meta) {
		fetched, err := a.fetch(ctx, workoutID)
		if err != nil {
			return nil, fmt.Errorf("fetch video metadata: %w", err)
		}
		meta = *fetched
		a.Service.Cache.Put(taxonomy.StageMetadata, workoutID, meta)
	}

	durationSec := parseISODuration(meta.Duration)

	return &ContextBundle{
		ID:              workoutID,
		SourceURL:       url,
		Title:           meta.Title,
		ChannelOrOwner:  meta.ChannelTitle,
		DurationSeconds: durationSec,
		TextSummary:     a.summary(&meta),
		ImageURL:        meta.ThumbnailURL,
		SourceType:      SourceYouTube,
	}, nil
}

func (a *YouTubeAdapter) fetch(ctx context.Context, videoID string) (*videoMetadata, error) {
	yt, err := a.newAPI(ctx, a.Service.Config.YouTubeAPIKey)
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}

	resp, err := yt.Videos.List([]string{"snippet", "contentDetails", "statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}
	item := resp.Items[0]

	meta := &videoMetadata{
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ChannelTitle: item.Snippet.ChannelTitle,
		Tags:         item.Snippet.Tags,
		PublishedAt:  item.Snippet.PublishedAt,
		Duration:     item.ContentDetails.Duration,
	}
	if item.Statistics != nil {
		meta.ViewCount = item.Statistics.ViewCount
		meta.LikeCount = item.Statistics.LikeCount
	}
	if item.Snippet.Thumbnails != nil {
		switch {
		case item.Snippet.Thumbnails.Maxres != nil:
			meta.ThumbnailURL = item.Snippet.Thumbnails.Maxres.Url
		case item.Snippet.Thumbnails.High != nil:
			meta.ThumbnailURL = item.Snippet.Thumbnails.High.Url
		case item.Snippet.Thumbnails.Default != nil:
			meta.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
		}
	}

	// Channel description is informative for channel-branded programs
	// (yoga studios, HIIT channels). Failures are non-fatal.
	if item.Snippet.ChannelId != "" {
		chResp, err := yt.Channels.List([]string{"snippet"}).Id(item.Snippet.ChannelId).Context(ctx).Do()
		if err != nil {
			slog.With("component", "sources").Warn("Channel lookup failed", "channel_id", item.Snippet.ChannelId, "error", err)
		} else if len(chResp.Items) > 0 {
			meta.ChannelDescription = chResp.Items[0].Snippet.Description
		}
	}

	// Top comments by relevance. Comments can be disabled; non-fatal.
	cResp, err := yt.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).Order("relevance").MaxResults(maxComments).Context(ctx).Do()
	if err != nil {
		slog.With("component", "sources").Warn("Comment lookup failed", "video_id", videoID, "error", err)
	} else {
		for _, th := range cResp.Items {
			if th.Snippet == nil || th.Snippet.TopLevelComment == nil || th.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			meta.Comments = append(meta.Comments, th.Snippet.TopLevelComment.Snippet.TextDisplay)
			if len(meta.Comments) >= maxComments {
				break
			}
		}
	}

	return meta, nil
}

func (a *YouTubeAdapter) summary(meta *videoMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", meta.Title)
	if meta.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", truncate(meta.Description, maxDescriptionChars))
	}
	if len(meta.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(meta.Tags, ", "))
	}
	fmt.Fprintf(&b, "Channel: %s\n", meta.ChannelTitle)
	if meta.ChannelDescription != "" {
		fmt.Fprintf(&b, "Channel description: %s\n", truncate(meta.ChannelDescription, maxDescriptionChars))
	}
	if meta.PublishedAt != "" {
		fmt.Fprintf(&b, "Published: %s\n", meta.PublishedAt)
	}
	if meta.ViewCount > 0 {
		fmt.Fprintf(&b, "Views: %d, Likes: %d\n", meta.ViewCount, meta.LikeCount)
	}
	if len(meta.Comments) > 0 {
		b.WriteString("Top comments:\n")
		for _, c := range meta.Comments {
			fmt.Fprintf(&b, "- %s\n", truncate(c, maxCommentChars))
		}
	}
	return b.String()
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/v/([A-Za-z0-9_-]{11})`),
}

var bareVideoIDPattern = regexp.MustCompile(`/([A-Za-z0-9_-]{11})(?:[/?#]|$)`)

// ExtractVideoID pulls the 11-character video id out of any supported YouTube
// URL form. Returns "" when no id is present.
func ExtractVideoID(url string) string {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	if m := bareVideoIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts an ISO-8601 duration (PT45M12S) to seconds.
// Malformed input yields 0.
func parseISODuration(iso string) int {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	days := atoiSafe(m[1])
	hours := atoiSafe(m[2])
	mins := atoiSafe(m[3])
	secs := atoiSafe(m[4])
	return ((days*24+hours)*60+mins)*60 + secs
}

func atoiSafe(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
