package main

import (
	"flag"
	"image"
	"image/color"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tmpim/sixel"
	"github.com/tmpim/sixel/stream"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	upgrader = websocket.Upgrader{
		HandshakeTimeout: 5 * time.Second,
	}

	listenAddr = flag.String("l", ":9999", "address to listen on")
	maxBody    = flag.String("max-body", "16M", "largest accepted upload")
)

func main() {
	flag.Parse()

	mgr := stream.NewManager()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.BodyLimit(*maxBody))

	api := e.Group("/api")

	api.GET("/stream", func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		mgr.HandleConn(ws)

		return nil
	})

	api.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int{
			"sessions": mgr.Count(),
		})
	})

	api.POST("/encode", handleEncode, echo.WrapMiddleware(func(h http.Handler) http.Handler {
		return gzhttp.GzipHandler(h)
	}))

	log.Fatal(e.Start(*listenAddr))
}

// handleEncode encodes the uploaded image. Options come from the query
// string: colors, dither, quality and bg (a hex colour).
func handleEncode(c echo.Context) error {
	img, _, err := image.Decode(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to decode image: "+err.Error())
	}

	enc, err := encoderFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentType, "image/x-sixel")
	c.Response().WriteHeader(http.StatusOK)

	start := time.Now()
	if err := enc.Encode(img); err != nil {
		log.Println("sixel server: encode failed:", err)
		return err
	}
	log.Println("sixel server: encoded", img.Bounds().Size(), "in", time.Since(start))

	return nil
}

func encoderFromQuery(c echo.Context) (*sixel.Encoder, error) {
	enc := sixel.NewEncoder(c.Response())

	if v := c.QueryParam("colors"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		enc.Colors = n
	}

	var err error
	if v := c.QueryParam("dither"); v != "" {
		if enc.Dither, err = sixel.ParseDitherMethod(v); err != nil {
			return nil, err
		}
	}
	if v := c.QueryParam("quality"); v != "" {
		if enc.Quality, err = sixel.ParseQualityMode(v); err != nil {
			return nil, err
		}
	}
	if v := c.QueryParam("bg"); v != "" {
		bg, err := colorful.Hex(v)
		if err != nil {
			return nil, err
		}
		r, g, b := bg.RGB255()
		enc.Background = color.RGBA{R: r, G: g, B: b, A: 255}
	}

	if enc.Colors < 1 || enc.Colors > sixel.MaxColors {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "colors must be 1-256")
	}

	return enc, nil
}
