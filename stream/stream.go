// Package stream encodes frames sent over a websocket into sixel sequences,
// optionally reusing one palette across frames so that a terminal does not
// flicker between palettes.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tmpim/sixel"

	// Decoders for frames.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Control configures a session. It is sent by the client as a JSON text
// message and may be resent at any time, which discards the stable palette.
type Control struct {
	ID      string `json:"id"`
	Colors  int    `json:"colors"`
	Dither  string `json:"dither"`
	Quality string `json:"quality"`
	// StablePalette builds the palette from the first frame and reuses it
	// for all later frames.
	StablePalette bool `json:"stablePalette"`
}

// DefaultControl is used until the client sends its own.
var DefaultControl = Control{
	Colors: sixel.MaxColors,
	Dither: "auto",
}

type options struct {
	colors  int
	dither  sixel.DitherMethod
	quality sixel.QualityMode
	stable  bool
}

func (c Control) options() (options, error) {
	if c.Colors < 1 || c.Colors > sixel.MaxColors {
		return options{}, fmt.Errorf("sixel stream: colors must be 1-%d, got %d: %w",
			sixel.MaxColors, c.Colors, sixel.ErrBadInput)
	}

	opts := options{colors: c.Colors, stable: c.StablePalette}

	var err error
	if c.Dither != "" {
		if opts.dither, err = sixel.ParseDitherMethod(c.Dither); err != nil {
			return options{}, err
		}
	}
	if c.Quality != "" {
		if opts.quality, err = sixel.ParseQualityMode(c.Quality); err != nil {
			return options{}, err
		}
	}
	if opts.stable && opts.quality == sixel.QualityHighColor {
		return options{}, fmt.Errorf("sixel stream: high color frames have no palette to keep: %w",
			sixel.ErrBadArgument)
	}

	return opts, nil
}

// Session encodes the frames of one client. Frames are encoded one at a
// time in the order received.
type Session struct {
	mutex *sync.Mutex
	id    string
	opts  options
	conf  *sixel.DitherConf
}

// NewSession returns a session using DefaultControl.
func NewSession() *Session {
	opts, err := DefaultControl.options()
	if err != nil {
		panic(err)
	}
	return &Session{
		mutex: new(sync.Mutex),
		opts:  opts,
	}
}

// ID returns the identifier from the last control message.
func (s *Session) ID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.id
}

// SetControl applies a control message.
func (s *Session) SetControl(c Control) error {
	opts, err := c.options()
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.id = c.ID
	s.opts = opts
	s.conf = nil
	return nil
}

// EncodeFrame decodes an image file held in data and returns it as a sixel
// sequence.
func (s *Session) EncodeFrame(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("sixel stream: decode frame: %w", err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("sixel stream: empty frame: %w", sixel.ErrBadInput)
	}

	return s.EncodePixels(sixel.Flatten(img, color.Black), b.Dx(), b.Dy())
}

// EncodePixels encodes RGB888 pixels.
func (s *Session) EncodePixels(pixels []byte, width, height int) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.conf != nil {
		return s.conf.EncodeToBytes(pixels, width, height)
	}

	conf, err := s.newConf(pixels, width, height)
	if err != nil {
		return nil, err
	}
	out, err := conf.EncodeToBytes(pixels, width, height)
	if err != nil {
		return nil, err
	}

	if s.opts.stable {
		// Later frames may hold colours the first one lacked, so the
		// dither method is resolved again without the first frame's
		// colour count.
		if err := conf.SetPalette(conf.Palette()); err != nil {
			return nil, err
		}
		s.conf = conf
	}

	return out, nil
}

func (s *Session) newConf(pixels []byte, width, height int) (*sixel.DitherConf, error) {
	conf, err := sixel.NewDitherConf(s.opts.colors)
	if err != nil {
		return nil, err
	}
	if err := conf.SetDiffusionType(s.opts.dither); err != nil {
		return nil, err
	}
	err = conf.Initialize(pixels, width, height, sixel.RGB888,
		sixel.SplitAuto, sixel.MeanAuto, s.opts.quality)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

type errorMessage struct {
	Error string `json:"error"`
}

// Manager tracks connected sessions.
type Manager struct {
	sessionsMutex *sync.Mutex
	sessions      []*Session
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{
		sessionsMutex: new(sync.Mutex),
	}
}

// Count returns the number of connected sessions.
func (m *Manager) Count() int {
	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()
	return len(m.sessions)
}

func (m *Manager) add(s *Session) {
	m.sessionsMutex.Lock()
	m.sessions = append(m.sessions, s)
	m.sessionsMutex.Unlock()
}

func (m *Manager) remove(s *Session) {
	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()

	for i, c := range m.sessions {
		if c == s {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return
		}
	}
}

// HandleConn serves a websocket connection until it is closed. Text messages
// are JSON controls; binary messages are frames, each answered with a text
// message holding the sixel sequence or a JSON error.
func (m *Manager) HandleConn(conn *websocket.Conn) {
	session := NewSession()
	m.add(session)
	defer m.remove(session)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Println("sixel stream: client disconnected:", err)
			return
		}

		var reply []byte
		switch msgType {
		case websocket.TextMessage:
			var control Control
			if err = json.Unmarshal(data, &control); err == nil {
				err = session.SetControl(control)
			}
			if err != nil {
				log.Println("sixel stream: bad control message:", err)
				reply = encodeError(err)
			}
		case websocket.BinaryMessage:
			reply, err = session.EncodeFrame(data)
			if err != nil {
				log.Println("sixel stream:", session.ID(), "failed to encode frame:", err)
				reply = encodeError(err)
			}
		default:
			continue
		}

		if reply == nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			log.Println("sixel stream: write failed:", err)
			return
		}
	}
}

func encodeError(err error) []byte {
	d, jerr := json.Marshal(errorMessage{Error: err.Error()})
	if jerr != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return d
}

// IsClientError reports whether err was caused by the client's input.
func IsClientError(err error) bool {
	return errors.Is(err, sixel.ErrBadInput) || errors.Is(err, sixel.ErrBadArgument)
}
