package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/carousel"
	"github.com/angelmondragon/storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const keepAliveInterval = 15 * time.Second

type gallerySource interface {
	Gallery(ctx context.Context) ([]catalog.GalleryImage, error)
}

type slidesEvent struct {
	Slides []catalog.GalleryImage `json:"slides"`
	Index  int                    `json:"index"`
}

type carouselPosition struct {
	Index int `json:"index"`
}

// CarouselStream opens the session's carousel and streams slide changes as
// server-sent events until the client disconnects.
func CarouselStream(src gallerySource, reg *carousel.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		slides, err := src.Gallery(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(ctx)
		c := reg.Open(sessionID, len(slides))
		defer reg.Release(sessionID, c)

		rc := http.NewResponseController(w)
		_ = rc.SetWriteDeadline(time.Time{})

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		if err := writeSSE(w, "slides", slidesEvent{Slides: slides, Index: c.Index()}); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "reason", err.Error()), "carousel.stream_unflushable")
			}
			return
		}

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-c.Events():
				if !ok {
					return
				}
				if err := writeSSE(w, "slide", ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// CarouselAction handles the next and prev arrows.
func CarouselAction(reg *carousel.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		c, ok := reg.Get(middleware.SessionIDFromContext(ctx))
		if !ok {
			responses.WriteError(ctx, logg, w, errStreamNotOpen())
			return
		}

		var (
			index int
			err   error
		)
		switch chi.URLParam(r, "action") {
		case "next":
			index, err = c.Next()
		case "prev":
			index, err = c.Prev()
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "action must be next or prev"))
			return
		}
		writePosition(ctx, w, logg, index, err)
	}
}

// CarouselSelect jumps to a slide by index (the dot indicators).
func CarouselSelect(reg *carousel.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "index must be an integer"))
			return
		}
		c, ok := reg.Get(middleware.SessionIDFromContext(ctx))
		if !ok {
			responses.WriteError(ctx, logg, w, errStreamNotOpen())
			return
		}
		index, err = c.Select(index)
		writePosition(ctx, w, logg, index, err)
	}
}

func writePosition(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, index int, err error) {
	switch {
	case errors.Is(err, carousel.ErrOutOfRange):
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "slide index out of range"))
	case errors.Is(err, carousel.ErrClosed):
		responses.WriteError(ctx, logg, w, errStreamNotOpen())
	case err != nil:
		responses.WriteError(ctx, logg, w, err)
	default:
		responses.WriteSuccess(w, carouselPosition{Index: index})
	}
}

func errStreamNotOpen() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "carousel stream is not open")
}

func writeSSE(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
