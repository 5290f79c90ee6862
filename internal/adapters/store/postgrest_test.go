package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vmtlabs/tinsel/internal/adapters/store"
	"github.com/vmtlabs/tinsel/internal/domain/model"

	. "github.com/smartystreets/goconvey/convey"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	prefer string
	body   string
}

func newRESTServer(status int, response string) (*httptest.Server, *[]recordedRequest) {
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			prefer: r.Header.Get("Prefer"),
			body:   string(raw),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	return srv, &seen
}

func TestPostgRESTConfiguration(t *testing.T) {
	Convey("Given misconfigured connection settings", t, func() {
		ctx := context.Background()

		Convey("When the URL and key are missing", func() {
			p := store.NewPostgREST("", "")
			_, _, err := p.BestScore(ctx, "party", "ada")

			Convey("Then the call fails as a configuration error before any store access", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, store.ErrConfig), ShouldBeTrue)
				So(errors.Is(err, store.ErrUnavailable), ShouldBeFalse)
			})
		})

		Convey("When the URL has no usable scheme", func() {
			p := store.NewPostgREST("supabase.co/dashboard", "key")
			err := p.Upsert(ctx, model.ScoreRecord{EventID: "party", ParticipantID: "ada"})

			Convey("Then the call fails as a configuration error", func() {
				So(errors.Is(err, store.ErrConfig), ShouldBeTrue)
			})
		})
	})
}

func TestPostgRESTReads(t *testing.T) {
	Convey("Given a responding row store", t, func() {
		ctx := context.Background()

		Convey("When reading a best score that exists", func() {
			srv, seen := newRESTServer(http.StatusOK, `[{"best_score": 80}]`)
			defer srv.Close()
			p := store.NewPostgREST(srv.URL, "service-key")

			score, exists, err := p.BestScore(ctx, "party", "ada")

			Convey("Then the score comes back", func() {
				So(err, ShouldBeNil)
				So(exists, ShouldBeTrue)
				So(score, ShouldEqual, 80)
			})

			Convey("And the request filters on both key columns", func() {
				So(len(*seen), ShouldEqual, 1)
				req := (*seen)[0]
				So(req.method, ShouldEqual, http.MethodGet)
				So(req.path, ShouldEqual, "/rest/v1/scores")
				So(req.query, ShouldContainSubstring, "event_id=eq.party")
				So(req.query, ShouldContainSubstring, "participant_id=eq.ada")
			})
		})

		Convey("When reading a best score with no row", func() {
			srv, _ := newRESTServer(http.StatusOK, `[]`)
			defer srv.Close()
			p := store.NewPostgREST(srv.URL, "service-key")

			_, exists, err := p.BestScore(ctx, "party", "ada")

			Convey("Then absence is reported without error", func() {
				So(err, ShouldBeNil)
				So(exists, ShouldBeFalse)
			})
		})

		Convey("When reading the leaderboard", func() {
			rows := `[{"event_id":"party","participant_id":"ada","name":"Ada","best_score":80,"moves":20,"seconds":45,"meme_url":null,"meme_tiny_url":null,"updated_at":"2025-12-01T10:00:00+00:00"}]`
			srv, seen := newRESTServer(http.StatusOK, rows)
			defer srv.Close()
			p := store.NewPostgREST(srv.URL, "service-key")

			out, err := p.Top(ctx, "party", 50)

			Convey("Then rows decode including the timestamp", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 1)
				So(out[0].ParticipantID, ShouldEqual, "ada")
				So(out[0].BestScore, ShouldEqual, 80)
				So(out[0].MemeURL, ShouldBeNil)
				So(out[0].UpdatedAt.Equal(time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})

			Convey("And the store is asked for the ordering and the cap", func() {
				req := (*seen)[0]
				So(req.query, ShouldContainSubstring, "limit=50")
				So(req.query, ShouldContainSubstring, "best_score.desc")
				So(req.query, ShouldContainSubstring, "updated_at.asc")
			})
		})

		Convey("When the store reports an error", func() {
			srv, _ := newRESTServer(http.StatusInternalServerError, `{"message":"relation \"scores\" does not exist"}`)
			defer srv.Close()
			p := store.NewPostgREST(srv.URL, "service-key")

			_, err := p.Top(ctx, "party", 50)

			Convey("Then the store's own message is surfaced", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, store.ErrUnavailable), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, `relation "scores" does not exist`)
			})
		})
	})
}

func TestPostgRESTWrites(t *testing.T) {
	Convey("Given a responding row store", t, func() {
		ctx := context.Background()

		Convey("When upserting a row", func() {
			srv, seen := newRESTServer(http.StatusCreated, ``)
			defer srv.Close()
			p := store.NewPostgREST(srv.URL, "service-key")

			meme := "https://x.gif"
			err := p.Upsert(ctx, model.ScoreRecord{
				EventID: "party", ParticipantID: "ada", Name: "Ada",
				BestScore: 80, Moves: 20, Seconds: 45, MemeURL: &meme,
				UpdatedAt: time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC),
			})

			Convey("Then the write resolves conflicts on the composite key", func() {
				So(err, ShouldBeNil)
				req := (*seen)[0]
				So(req.method, ShouldEqual, http.MethodPost)
				So(req.query, ShouldContainSubstring, "on_conflict=")
				So(req.prefer, ShouldContainSubstring, "resolution=merge-duplicates")

				var payload []map[string]any
				So(json.Unmarshal([]byte(req.body), &payload), ShouldBeNil)
				So(len(payload), ShouldEqual, 1)
				So(payload[0]["participant_id"], ShouldEqual, "ada")
				So(payload[0]["meme_url"], ShouldEqual, "https://x.gif")
				So(payload[0]["meme_tiny_url"], ShouldBeNil)
			})
		})

		Convey("When patching only the aux fields", func() {
			srv, seen := newRESTServer(http.StatusNoContent, ``)
			defer srv.Close()
			p := store.NewPostgREST(srv.URL, "service-key")

			err := p.Patch(ctx, "party", "ada", model.Patch{
				Name:      "Ada",
				UpdatedAt: time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC),
				MemeURL:   model.NullOptional(),
			})

			Convey("Then the body carries only present fields, null meaning clear", func() {
				So(err, ShouldBeNil)
				req := (*seen)[0]
				So(req.method, ShouldEqual, http.MethodPatch)

				var payload map[string]json.RawMessage
				So(json.Unmarshal([]byte(req.body), &payload), ShouldBeNil)
				So(payload, ShouldContainKey, "name")
				So(payload, ShouldContainKey, "updated_at")
				So(string(payload["meme_url"]), ShouldEqual, "null")
				So(payload, ShouldNotContainKey, "meme_tiny_url")
				So(payload, ShouldNotContainKey, "best_score")
			})
		})

		Convey("When the meme columns are missing", func() {
			srv, _ := newRESTServer(http.StatusBadRequest, `{"message":"Could not find the 'meme_url' column of 'scores' in the schema cache"}`)
			defer srv.Close()
			p := store.NewPostgREST(srv.URL, "service-key")

			err := p.Patch(ctx, "party", "ada", model.Patch{Name: "Ada", MemeURL: model.NewOptional("https://x.gif")})

			Convey("Then the failure is recognizable for the provisioning hint", func() {
				So(err, ShouldNotBeNil)
				So(store.IsMissingMemeColumn(err), ShouldBeTrue)
			})
		})
	})
}
