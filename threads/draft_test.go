package threads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"
)

func carouselItems(n int) []CarouselItem {
	items := make([]CarouselItem, n)
	for i := range items {
		items[i] = CarouselItem{MediaType: MediaImage, URL: fmt.Sprintf("https://cdn.example.com/%d.jpg", i)}
	}
	return items
}

func TestCreateCarouselPostItemBounds(t *testing.T) {
	tests := []struct {
		count   int
		wantErr bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{10, false},
		{20, false},
		{21, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d items", tt.count), func(t *testing.T) {
			ft := &fakeTransport{}
			client := newTestClient(t, ft)

			draft, err := client.CreateCarouselPost(CarouselOptions{Items: carouselItems(tt.count)})
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != "Items" {
					t.Errorf("expected Items field error, got %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if draft.MediaType() != MediaCarousel {
					t.Errorf("media type = %s, want CAROUSEL", draft.MediaType())
				}
				if len(draft.Items()) != tt.count {
					t.Errorf("items = %d, want %d", len(draft.Items()), tt.count)
				}
			}
			if len(ft.calls) != 0 {
				t.Errorf("construction made %d remote calls", len(ft.calls))
			}
		})
	}
}

func TestCreateCarouselPostRejectsBadItems(t *testing.T) {
	client := newTestClient(t, &fakeTransport{})
	items := carouselItems(3)
	items[1] = CarouselItem{MediaType: MediaText, URL: "https://cdn.example.com/x.jpg"}

	if _, err := client.CreateCarouselPost(CarouselOptions{Items: items}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for TEXT item, got %v", err)
	}

	items = carouselItems(2)
	items[0].URL = "not a url"
	if _, err := client.CreateCarouselPost(CarouselOptions{Items: items}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for bad URL, got %v", err)
	}
}

func TestSanitizeTopicTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"golang", "golang"},
		{"go.lang", "golang"},
		{"R&D", "RD"},
		{"a.b&c.d&e", "abcde"},
		{strings.Repeat("x", 60), strings.Repeat("x", 50)},
		{strings.Repeat("é", 55), strings.Repeat("é", 50)},
		{strings.Repeat(".", 10) + "ok", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeTopicTag(tt.in); got != tt.want {
				t.Errorf("SanitizeTopicTag(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeTopicTagProperty(t *testing.T) {
	check := func(s string) bool {
		got := SanitizeTopicTag(s)
		return !strings.ContainsAny(got, ".&") && utf8.RuneCountInString(got) <= 50
	}
	if err := quick.Check(check, nil); err != nil {
		t.Error(err)
	}
}

func TestCreatePostValidation(t *testing.T) {
	tests := []struct {
		name string
		opts PostOptions
	}{
		{"empty text post", PostOptions{}},
		{"image without url", PostOptions{MediaType: MediaImage}},
		{"video without url", PostOptions{MediaType: MediaVideo, Text: "clip"}},
		{"video with image url", PostOptions{MediaType: MediaVideo, VideoURL: "https://cdn.example.com/v.mp4", ImageURL: "https://cdn.example.com/i.jpg"}},
		{"text with image url", PostOptions{Text: "hi", ImageURL: "https://cdn.example.com/i.jpg"}},
		{"carousel through CreatePost", PostOptions{MediaType: MediaCarousel, Text: "hi"}},
		{"malformed image url", PostOptions{MediaType: MediaImage, ImageURL: "::not-a-url"}},
		{"spoiler on text", PostOptions{Text: "hi", SpoilerMedia: true}},
		{"link on image", PostOptions{MediaType: MediaImage, ImageURL: "https://cdn.example.com/i.jpg", LinkAttachment: "https://example.com"}},
		{"unknown reply control", PostOptions{Text: "hi", ReplyControl: "nobody"}},
		{"gif without provider", PostOptions{GifAttachment: &GifAttachment{GifID: "123"}}},
		{"text too long", PostOptions{Text: strings.Repeat("a", 501)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeTransport{})
			if _, err := client.CreatePost(tt.opts); !errors.Is(err, ErrValidation) {
				t.Errorf("CreatePost(%+v) error = %v, want validation error", tt.opts, err)
			}
		})
	}
}

func TestCreatePostAccepts(t *testing.T) {
	tests := []struct {
		name string
		opts PostOptions
		want MediaType
	}{
		{"plain text", PostOptions{Text: "hello"}, MediaText},
		{"link only", PostOptions{LinkAttachment: "https://example.com/post"}, MediaText},
		{"gif only", PostOptions{GifAttachment: &GifAttachment{GifID: "abc", Provider: "TENOR"}}, MediaText},
		{"image", PostOptions{MediaType: MediaImage, ImageURL: "https://cdn.example.com/i.jpg", SpoilerMedia: true}, MediaImage},
		{"video", PostOptions{MediaType: MediaVideo, VideoURL: "https://cdn.example.com/v.mp4"}, MediaVideo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeTransport{})
			draft, err := client.CreatePost(tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if draft.MediaType() != tt.want {
				t.Errorf("media type = %s, want %s", draft.MediaType(), tt.want)
			}
		})
	}
}

func TestCreatePostRequiresUser(t *testing.T) {
	client, err := NewClient(Config{Transport: &fakeTransport{}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.CreatePost(PostOptions{Text: "hi"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "UserID" {
		t.Fatalf("expected UserID validation error, got %v", err)
	}

	draft, err := client.CreatePost(PostOptions{Text: "hi", UserID: "7"})
	if err != nil {
		t.Fatal(err)
	}
	if draft.UserID() != "7" {
		t.Errorf("user id = %q, want 7", draft.UserID())
	}
}

func TestPublishRetriesTransientContainerFailures(t *testing.T) {
	for failures := 0; failures <= 4; failures++ {
		t.Run(fmt.Sprintf("%d failures", failures), func(t *testing.T) {
			ft := &fakeTransport{do: publishingServer(failures, transientErr)}
			client := newTestClient(t, ft)

			draft, err := client.CreatePost(PostOptions{MediaType: MediaVideo, VideoURL: "https://cdn.example.com/v.mp4"})
			if err != nil {
				t.Fatal(err)
			}
			post, err := draft.Publish(context.Background())

			wantCalls := min(failures+1, DefaultMaxAttempts)
			if got := len(ft.callsTo("/threads")); got != wantCalls {
				t.Errorf("container calls = %d, want %d", got, wantCalls)
			}

			if failures < DefaultMaxAttempts {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if !strings.HasPrefix(post.ID(), "post-") {
					t.Errorf("unexpected post id %q", post.ID())
				}
				if got := len(ft.callsTo("/threads_publish")); got != 1 {
					t.Errorf("publish calls = %d, want 1", got)
				}
				return
			}

			if !errors.Is(err, ErrPublishFailed) {
				t.Fatalf("expected ErrPublishFailed, got %v", err)
			}
			var pf *PublishFailedError
			if !errors.As(err, &pf) {
				t.Fatalf("expected *PublishFailedError, got %T", err)
			}
			if pf.Attempts != DefaultMaxAttempts {
				t.Errorf("attempts = %d, want %d", pf.Attempts, DefaultMaxAttempts)
			}
			var rerr *RemoteError
			if !errors.As(err, &rerr) || rerr.Payload.Code != 9007 {
				t.Errorf("expected last transient cause with payload, got %v", err)
			}
			if got := len(ft.callsTo("/threads_publish")); got != 0 {
				t.Errorf("publish calls = %d, want 0", got)
			}
		})
	}
}

func TestPublishPermanentErrorShortCircuits(t *testing.T) {
	ft := &fakeTransport{do: publishingServer(1, permanentErr)}
	client := newTestClient(t, ft)

	draft, err := client.CreatePost(PostOptions{Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = draft.Publish(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(ft.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(ft.calls))
	}
	if !errors.Is(err, ErrPermanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if errors.Is(err, ErrPublishFailed) {
		t.Errorf("permanent failure must not be reported as retry exhaustion")
	}
	var rerr *RemoteError
	if !errors.As(err, &rerr) || rerr.Payload.Code != 190 {
		t.Errorf("expected original payload, got %v", err)
	}
}

func TestPublishStepTwoIsNotRetried(t *testing.T) {
	ft := &fakeTransport{do: func(n int, req Request, out any) error {
		if strings.HasSuffix(req.Path, "/threads_publish") {
			return transientErr(req)
		}
		return respond(out, idResponse{ID: "container-1"})
	}}
	client := newTestClient(t, ft)

	draft, err := client.CreatePost(PostOptions{Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = draft.Publish(context.Background())

	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected unwrapped *RemoteError, got %T: %v", err, err)
	}
	if errors.Is(err, ErrPublishFailed) {
		t.Error("publish step failure must not be wrapped as PublishFailed")
	}
	if got := len(ft.callsTo("/threads_publish")); got != 1 {
		t.Errorf("publish calls = %d, want 1", got)
	}
	body, ok := ft.callsTo("/threads_publish")[0].Body.(publishBody)
	if !ok || body.CreationID != "container-1" {
		t.Errorf("publish body = %#v", ft.callsTo("/threads_publish")[0].Body)
	}
}

func TestPublishContainerBody(t *testing.T) {
	ft := &fakeTransport{do: publishingServer(0, nil)}
	client := newTestClient(t, ft)

	draft, err := client.CreatePost(PostOptions{
		MediaType:    MediaImage,
		Text:         "sunset",
		ImageURL:     "https://cdn.example.com/sunset.jpg",
		TopicTag:     "photo.graphy&art",
		ReplyToID:    "parent-1",
		ReplyControl: ReplyAccountsYouFollow,
		SpoilerMedia: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	post, err := draft.Publish(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	containers := ft.callsTo("/threads")
	if len(containers) != 1 {
		t.Fatalf("container calls = %d, want 1", len(containers))
	}
	req := containers[0]
	if req.Method != "POST" || req.Path != "42/threads" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	body := req.Body.(containerBody)
	want := containerBody{
		MediaType:      MediaImage,
		Text:           "sunset",
		ImageURL:       "https://cdn.example.com/sunset.jpg",
		TopicTag:       "photographyart",
		ReplyToID:      "parent-1",
		ReplyControl:   ReplyAccountsYouFollow,
		IsSpoilerMedia: true,
	}
	if body != want {
		t.Errorf("container body = %+v, want %+v", body, want)
	}
	if post.ParentID() != "parent-1" {
		t.Errorf("parent id = %q, want parent-1", post.ParentID())
	}
}

func TestCarouselChildOrdering(t *testing.T) {
	var childIDs []string
	ft := &fakeTransport{}
	ft.do = func(n int, req Request, out any) error {
		if strings.HasSuffix(req.Path, "/threads_publish") {
			return respond(out, idResponse{ID: "carousel-post"})
		}
		body := req.Body.(containerBody)
		if body.IsCarouselItem {
			id := fmt.Sprintf("child-%d", len(childIDs))
			childIDs = append(childIDs, id)
			return respond(out, idResponse{ID: id})
		}
		return respond(out, idResponse{ID: "parent-container"})
	}
	client := newTestClient(t, ft)

	draft, err := client.CreateCarouselPost(CarouselOptions{
		Text: "three things",
		Items: []CarouselItem{
			{MediaType: MediaImage, URL: "https://cdn.example.com/a.jpg"},
			{MediaType: MediaVideo, URL: "https://cdn.example.com/b.mp4"},
			{MediaType: MediaImage, URL: "https://cdn.example.com/c.jpg"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := draft.Publish(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(ft.calls) != 5 {
		t.Fatalf("calls = %d, want 5", len(ft.calls))
	}
	wantURLs := []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.mp4", "https://cdn.example.com/c.jpg"}
	for i, want := range wantURLs {
		body := ft.calls[i].Body.(containerBody)
		if !body.IsCarouselItem {
			t.Errorf("call %d is not a carousel item", i)
		}
		if got := body.ImageURL + body.VideoURL; got != want {
			t.Errorf("call %d url = %q, want %q", i, got, want)
		}
	}
	if ft.calls[1].Body.(containerBody).VideoURL == "" {
		t.Error("video item should set video_url")
	}

	parent := ft.calls[3].Body.(containerBody)
	if parent.MediaType != MediaCarousel || parent.IsCarouselItem {
		t.Errorf("parent body = %+v", parent)
	}
	if parent.Children != "child-0,child-1,child-2" {
		t.Errorf("children = %q, want child-0,child-1,child-2", parent.Children)
	}
	if parent.Text != "three things" {
		t.Errorf("parent text = %q", parent.Text)
	}
	if body := ft.calls[4].Body.(publishBody); body.CreationID != "parent-container" {
		t.Errorf("published container = %q", body.CreationID)
	}
}

func TestCarouselChildFailureStopsBeforeParent(t *testing.T) {
	ft := &fakeTransport{}
	ft.do = func(n int, req Request, out any) error {
		if n == 2 {
			return permanentErr(req)
		}
		return respond(out, idResponse{ID: fmt.Sprintf("c%d", n)})
	}
	client := newTestClient(t, ft)

	draft, err := client.CreateCarouselPost(CarouselOptions{Items: carouselItems(3)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := draft.Publish(context.Background()); !errors.Is(err, ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if len(ft.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(ft.calls))
	}
}

func TestDraftIsConsumedByPublish(t *testing.T) {
	ft := &fakeTransport{do: publishingServer(0, nil)}
	client := newTestClient(t, ft)

	draft, err := client.CreatePost(PostOptions{Text: "once"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := draft.Publish(context.Background()); err != nil {
		t.Fatal(err)
	}
	calls := len(ft.calls)

	if _, err := draft.Publish(context.Background()); !errors.Is(err, ErrDraftConsumed) {
		t.Fatalf("second publish error = %v, want ErrDraftConsumed", err)
	}
	if len(ft.calls) != calls {
		t.Errorf("second publish made %d remote calls", len(ft.calls)-calls)
	}
	if !draft.Consumed() {
		t.Error("draft should report consumed")
	}
}

func TestPublishHonoursCancellationBetweenAttempts(t *testing.T) {
	ft := &fakeTransport{do: publishingServer(10, transientErr)}
	client, err := NewClient(Config{
		Transport: ft,
		UserID:    "42",
		Retry:     RetryPolicy{MaxAttempts: 5, Delay: DefaultRetryDelay},
	})
	if err != nil {
		t.Fatal(err)
	}
	draft, err := client.CreatePost(PostOptions{Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = draft.Publish(ctx)
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
	if got := len(ft.callsTo("/threads")); got >= 5 {
		t.Errorf("cancelled publish made %d container calls", got)
	}
}
