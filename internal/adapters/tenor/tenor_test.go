package tenor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/vmtlabs/tinsel/internal/adapters/tenor"

	. "github.com/smartystreets/goconvey/convey"
)

const sampleResponse = `{
	"results": [
		{
			"content_description": "Happy dance",
			"media_formats": {
				"tinygif": {"url": "https://media.tenor.com/tiny.gif"},
				"gif": {"url": "https://media.tenor.com/full.gif"}
			}
		},
		{
			"content_description": "",
			"media_formats": {
				"tinygif": {"url": "https://media.tenor.com/only-tiny.gif"},
				"gif": {"url": ""}
			}
		},
		{
			"content_description": "broken",
			"media_formats": {"tinygif": {"url": ""}, "gif": {"url": ""}}
		}
	]
}`

func TestSearch(t *testing.T) {
	Convey("Given a meme catalog client", t, func() {
		ctx := context.Background()

		Convey("When no API key is configured", func() {
			var calls atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))
			defer srv.Close()
			c := tenor.New("", tenor.WithBaseURL(srv.URL))

			gifs, err := c.Search(ctx, "christmas", 9)

			Convey("Then the catalog is empty and nothing is fetched", func() {
				So(err, ShouldBeNil)
				So(gifs, ShouldBeEmpty)
				So(c.Enabled(), ShouldBeFalse)
				So(calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When searching with a key", func(cv C) {
			var calls atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				cv.So(r.URL.Query().Get("q"), ShouldEqual, "christmas")
				cv.So(r.URL.Query().Get("contentfilter"), ShouldEqual, "high")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(sampleResponse))
			}))
			defer srv.Close()
			c := tenor.New("test-key", tenor.WithBaseURL(srv.URL))

			gifs, err := c.Search(ctx, "christmas", 9)

			Convey("Then usable GIFs come back with alt fallbacks", func() {
				So(err, ShouldBeNil)
				So(len(gifs), ShouldEqual, 2)
				So(gifs[0].URL, ShouldEqual, "https://media.tenor.com/full.gif")
				So(gifs[0].TinyURL, ShouldEqual, "https://media.tenor.com/tiny.gif")
				So(gifs[0].Alt, ShouldEqual, "Happy dance")
				So(gifs[1].URL, ShouldEqual, "https://media.tenor.com/only-tiny.gif")
				So(gifs[1].Alt, ShouldEqual, "Meme GIF")
			})

			Convey("And a repeated query is served from the process cache", func() {
				again, err := c.Search(ctx, "christmas", 9)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, gifs)
				So(calls.Load(), ShouldEqual, 1)
			})

			Convey("And a different limit is a different cache entry", func() {
				_, err := c.Search(ctx, "christmas", 5)
				So(err, ShouldBeNil)
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the upstream fails", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer srv.Close()
			c := tenor.New("test-key", tenor.WithBaseURL(srv.URL))

			_, err := c.Search(ctx, "christmas", 9)

			Convey("Then the error is reported and nothing is cached", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "429")
			})
		})
	})
}
