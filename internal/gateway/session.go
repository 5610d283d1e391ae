package gateway

import (
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lingolens/translate-gateway/internal/cache"
	"github.com/lingolens/translate-gateway/internal/config"
	"github.com/lingolens/translate-gateway/internal/dispatch"
	"github.com/lingolens/translate-gateway/internal/observability"
	"github.com/lingolens/translate-gateway/internal/pipeline"
	"github.com/lingolens/translate-gateway/internal/ratelimit"
	"github.com/lingolens/translate-gateway/internal/stt"
	"github.com/lingolens/translate-gateway/internal/textfilter"
	"github.com/lingolens/translate-gateway/internal/translate"
	"github.com/lingolens/translate-gateway/internal/tts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The gateway sits behind the app backend; origin enforcement
		// belongs to the edge proxy
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Services are the shared external-service clients and the shared
// translation cache. The cache is mutated from completion goroutines of
// every session, which is why all its operations are serialized internally.
type Services struct {
	Translator   translate.Translator
	Transcriber  stt.Transcriber
	Synthesizer  tts.Synthesizer
	Cache        *cache.Cache
	ScriptRanges []textfilter.ScriptRange
}

// Session holds the state of one live streaming connection. Each session
// runs two independent pipeline instances: an OCR dispatcher fed by frame
// text events, and a voice chain fed by recorded utterances. Both share the
// process-wide translation cache but keep their own rate limiter.
type Session struct {
	id     string
	conn   *websocket.Conn
	cfg    *config.Config
	logger zerolog.Logger

	ocrDispatcher *dispatch.Dispatcher
	voiceChain    *pipeline.Chain

	writeMu sync.Mutex
	closed  bool
}

// NewSession creates a session for an upgraded connection
func NewSession(conn *websocket.Conn, cfg *config.Config, svcs Services) *Session {
	s := &Session{
		id:   uuid.New().String(),
		conn: conn,
		cfg:  cfg,
	}
	s.logger = observability.WithSession(s.id)

	cooldown := time.Duration(cfg.CooldownSeconds) * time.Second
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	s.ocrDispatcher = dispatch.New(dispatch.Options{
		Filter:           textfilter.NewScriptFilter(svcs.ScriptRanges),
		Cache:            svcs.Cache,
		Limiter:          ratelimit.New(cooldown),
		Translator:       svcs.Translator,
		LanguageA:        cfg.SourceLanguage,
		LanguageB:        cfg.TargetLanguage,
		Logger:           s.logger,
		RequestTimeout:   timeout,
		RedispatchLatest: cfg.RedispatchLatest,
		Callbacks: dispatch.Callbacks{
			OnTranslation: s.sendTranslation,
			OnCleared:     s.sendCleared,
			OnStatus:      s.sendStatus,
		},
	})

	// The voice flow applies no script filter: the transcriber already
	// gated on speech
	voiceDispatcher := dispatch.New(dispatch.Options{
		Filter:         textfilter.NewAnyText(),
		Cache:          svcs.Cache,
		Limiter:        ratelimit.New(cooldown),
		Translator:     svcs.Translator,
		LanguageA:      cfg.SourceLanguage,
		LanguageB:      cfg.TargetLanguage,
		Logger:         s.logger,
		RequestTimeout: timeout,
		Callbacks: dispatch.Callbacks{
			OnTranslation: s.sendTranslation,
			OnStatus:      s.sendStatus,
		},
	})

	s.voiceChain = pipeline.NewChain(pipeline.Options{
		Transcriber:  svcs.Transcriber,
		Dispatcher:   voiceDispatcher,
		Synthesizer:  svcs.Synthesizer,
		Voice:        cfg.CartesiaVoiceID,
		Logger:       s.logger,
		StageTimeout: timeout,
		Callbacks: pipeline.Callbacks{
			OnStageChanged: s.sendStage,
			OnStatus:       s.sendStatus,
			OnAudio:        s.sendAudio,
		},
	})

	return s
}

// HandleLiveWS is the entry point for live streaming connections
func HandleLiveWS(cfg *config.Config, svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		session := NewSession(conn, cfg, svcs)
		observability.RecordSessionStart()
		defer observability.RecordSessionEnd()

		session.logger.Info().Msg("Live session started")
		session.readLoop()
		session.logger.Info().Msg("Live session ended")
	}
}

// readLoop consumes client messages until the connection drops or the
// client ends the session
func (s *Session) readLoop() {
	defer s.close()

	for {
		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		switch msg.Event {
		case EventText:
			s.ocrDispatcher.Handle(dispatch.TextEvent{
				Text:       msg.Text,
				Source:     dispatch.SourceOCR,
				ObservedAt: time.Now(),
			})

		case EventVoiceStart:
			if _, err := s.voiceChain.StartRecording(msg.MimeHint); err != nil {
				s.sendStatus("recorder unavailable")
			}

		case EventVoiceAudio:
			chunk, err := base64.StdEncoding.DecodeString(msg.Payload)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Dropping undecodable audio chunk")
				continue
			}
			if err := s.voiceChain.AppendAudio(chunk); err != nil {
				s.logger.Debug().Err(err).Msg("Audio chunk outside recording")
			}

		case EventVoiceStop:
			s.voiceChain.StopRecording()

		case EventPlaybackDone:
			s.voiceChain.PlaybackFinished()

		case EventEndSession:
			s.voiceChain.EndSession()
			return

		default:
			s.logger.Debug().Str("event", msg.Event).Msg("Ignoring unknown client event")
		}
	}
}

// close marks the session dead. In-flight pipeline stages keep running and
// their results still land in the shared cache; the send helpers below turn
// into no-ops.
func (s *Session) close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
}

// send writes one message unless the session is gone. Completion callbacks
// race with disconnects, so a dead session swallows the write.
func (s *Session) send(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug().Err(err).Str("event", msg.Event).Msg("Dropping write to dead connection")
	}
}

func (s *Session) sendTranslation(sourceText, translatedText string) {
	s.send(ServerMessage{
		Event:          EventTranslation,
		SourceText:     sourceText,
		TranslatedText: translatedText,
	})
}

func (s *Session) sendCleared() {
	s.send(ServerMessage{Event: EventCleared})
}

func (s *Session) sendStatus(message string) {
	s.send(ServerMessage{Event: EventStatus, Message: message})
}

func (s *Session) sendStage(stage pipeline.Stage) {
	s.send(ServerMessage{Event: EventStage, Stage: string(stage)})
}

func (s *Session) sendAudio(u *pipeline.Utterance, audio *tts.Audio) {
	s.send(ServerMessage{
		Event:       EventAudio,
		UtteranceID: u.ID,
		Payload:     base64.StdEncoding.EncodeToString(audio.Data),
		SampleRate:  audio.SampleRate,
	})
}
