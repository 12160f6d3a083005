package controllers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/carousel"
	"github.com/angelmondragon/storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type stubGallery struct {
	slides []catalog.GalleryImage
	err    error
}

func (s stubGallery) Gallery(ctx context.Context) ([]catalog.GalleryImage, error) {
	return s.slides, s.err
}

func threeSlides() []catalog.GalleryImage {
	return []catalog.GalleryImage{
		{ID: 1, URL: "https://cms.example.com/a.png"},
		{ID: 2, URL: "https://cms.example.com/b.png"},
		{ID: 3, URL: "https://cms.example.com/c.png"},
	}
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestCarouselStreamDeliversSlideEvents(t *testing.T) {
	reg := carousel.NewRegistry(time.Hour)
	stream := CarouselStream(stubGallery{slides: threeSlides()}, reg, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stream.ServeHTTP(w, r.WithContext(middleware.WithSessionID(r.Context(), testSessionID)))
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	reader := bufio.NewReader(resp.Body)

	event, data := readEvent(t, reader)
	if event != "slides" || !strings.Contains(data, `"index":0`) || !strings.Contains(data, "b.png") {
		t.Fatalf("unexpected first event %s %s", event, data)
	}

	c, ok := reg.Get(testSessionID)
	if !ok {
		t.Fatal("expected carousel to be registered")
	}
	if _, err := c.Prev(); err != nil {
		t.Fatalf("prev: %v", err)
	}
	event, data = readEvent(t, reader)
	if event != "slide" || data != `{"index":2,"reason":"prev"}` {
		t.Fatalf("unexpected slide event %s %s", event, data)
	}

	resp.Body.Close()
	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected carousel to be released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCarouselStreamGalleryFailure(t *testing.T) {
	reg := carousel.NewRegistry(time.Hour)
	handler := CarouselStream(stubGallery{err: pkgerrors.New(pkgerrors.CodeDependency, "catalog unavailable")}, reg, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodGet, "/api/v1/carousel/stream", ""))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if reg.Len() != 0 {
		t.Fatal("no carousel should be opened on failure")
	}
}

func TestCarouselActionWithoutStream(t *testing.T) {
	handler := CarouselAction(carousel.NewRegistry(time.Hour), nil)

	req := withURLParams(newSessionRequest(http.MethodPost, "/api/v1/carousel/next", ""), "action", "next")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCarouselActionNextPrev(t *testing.T) {
	reg := carousel.NewRegistry(time.Hour)
	c := reg.Open(testSessionID, 3)
	defer reg.Release(testSessionID, c)
	handler := CarouselAction(reg, nil)

	cases := []struct {
		action string
		want   int
	}{
		{"next", 1},
		{"next", 2},
		{"next", 0},
		{"prev", 2},
	}
	for _, tc := range cases {
		req := withURLParams(newSessionRequest(http.MethodPost, "/api/v1/carousel/"+tc.action, ""), "action", tc.action)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", tc.action, resp.Code)
		}
		var pos carouselPosition
		decodeData(t, resp.Body, &pos)
		if pos.Index != tc.want {
			t.Fatalf("%s: expected index %d got %d", tc.action, tc.want, pos.Index)
		}
	}

	req := withURLParams(newSessionRequest(http.MethodPost, "/api/v1/carousel/jump", ""), "action", "jump")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", resp.Code)
	}
}

func TestCarouselSelect(t *testing.T) {
	reg := carousel.NewRegistry(time.Hour)
	c := reg.Open(testSessionID, 3)
	defer reg.Release(testSessionID, c)
	handler := CarouselSelect(reg, nil)

	cases := []struct {
		index string
		code  int
	}{
		{"2", http.StatusOK},
		{"3", http.StatusBadRequest},
		{"-1", http.StatusBadRequest},
		{"two", http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := withURLParams(newSessionRequest(http.MethodPost, "/api/v1/carousel/select/"+tc.index, ""), "index", tc.index)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.code {
			t.Fatalf("select %s: expected %d got %d", tc.index, tc.code, resp.Code)
		}
	}
	if c.Index() != 2 {
		t.Fatalf("expected index 2, got %d", c.Index())
	}
}
