package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type PublicationDate struct {
	DateTime string `json:"dateTime"`
	Timezone string `json:"timezone"`
}

type PostingProvider struct {
	Network string `json:"network"`
	Status  string `json:"status,omitempty"`
}

// PostingPost is a post record as returned by the posting service calendar.
type PostingPost struct {
	ID              json.RawMessage   `json:"id"`
	PublicationDate PublicationDate   `json:"publicationDate"`
	Text            string            `json:"text"`
	Providers       []PostingProvider `json:"providers"`
	CampaignID      string            `json:"campaignId,omitempty"`
}

// IDString returns the id whether the service sent it as a number or a string.
func (p PostingPost) IDString() string {
	raw := bytes.TrimSpace(p.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// DecodePostList accepts either a bare JSON array or an object wrapping the
// array in "data".
func DecodePostList(body []byte) ([]PostingPost, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	switch body[0] {
	case '[':
		var posts []PostingPost
		if err := json.Unmarshal(body, &posts); err != nil {
			return nil, fmt.Errorf("decode post array: %w", err)
		}
		return posts, nil
	case '{':
		var wrapped struct {
			Data *[]PostingPost `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("decode wrapped posts: %w", err)
		}
		if wrapped.Data == nil {
			return nil, fmt.Errorf("object payload has no data array")
		}
		return *wrapped.Data, nil
	default:
		return nil, fmt.Errorf("unexpected payload starting with %q", body[0])
	}
}

type PostRequest struct {
	PublicationDate PublicationDate   `json:"publicationDate"`
	Text            string            `json:"text"`
	Providers       []PostingProvider `json:"providers"`
	AutoPublish     bool              `json:"autoPublish"`
	Draft           bool              `json:"draft"`
}

type PostResponse struct {
	Data struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
	ID json.RawMessage `json:"id"`
}

// ExternalID picks the created post id from either response shape.
func (r PostResponse) ExternalID() string {
	for _, raw := range []json.RawMessage{r.Data.ID, r.ID} {
		if id := (PostingPost{ID: raw}).IDString(); id != "" {
			return id
		}
	}
	return ""
}
