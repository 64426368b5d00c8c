package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoService looks up uploaded videos so their title and link can be used
// as post text.
type VideoService interface {
	VideoInfo(ctx context.Context, videoID string) (*transfer.VideoInfo, error)
}

type youtubeService struct {
	yt *youtube.Service
}

func NewYoutubeService(ctx context.Context, apiKey string, opts ...option.ClientOption) (VideoService, error) {
	if apiKey == "" && len(opts) == 0 {
		return nil, errors.New("youtube api key is empty")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	yt, err := youtube.NewService(ctx, opts...)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error creating YouTube service: %w", err)
	}

	return &youtubeService{yt: yt}, nil
}

func (s *youtubeService) VideoInfo(ctx context.Context, videoID string) (*transfer.VideoInfo, error) {
	if videoID == "" {
		return nil, errors.New("video id is empty")
	}

	resp, err := s.yt.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching video %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	snippet := resp.Items[0].Snippet
	return &transfer.VideoInfo{
		ID:          videoID,
		Title:       snippet.Title,
		Description: snippet.Description,
		URL:         VideoURL(videoID),
	}, nil
}

func VideoURL(videoID string) string {
	return "https://youtu.be/" + videoID
}
