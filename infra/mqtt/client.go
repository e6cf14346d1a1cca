package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/tripstats/core/monitoring"
	"github.com/kilianp07/tripstats/core/worker"
	"github.com/kilianp07/tripstats/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	AuthMethod string          `json:"auth_method"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	// RequestTopic is the subscription filter for incoming requests. A "+"
	// level, if any, carries the request key.
	RequestTopic string `json:"request_topic"`
	// ResponseTopic is the prefix responses are published under, as
	// <response_topic>/<key>.
	ResponseTopic string      `json:"response_topic"`
	TLSConfig     *tls.Config `json:"-"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.RequestTopic == "" {
		c.RequestTopic = "tripstats/+/request"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = "tripstats/response"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// responseTopicFor is where the response for key is published.
func (c Config) responseTopicFor(key string) string {
	return strings.TrimSuffix(c.ResponseTopic, "/") + "/" + key
}

// keyFromTopic matches topic against RequestTopic and returns the level
// standing at the "+" position. ok is false when the topic does not match.
func (c Config) keyFromTopic(topic string) (key string, ok bool) {
	want := strings.Split(c.RequestTopic, "/")
	got := strings.Split(topic, "/")
	if len(want) != len(got) {
		return "", false
	}
	for i, w := range want {
		switch w {
		case "+":
			key = got[i]
		case got[i]:
		default:
			return "", false
		}
	}
	return key, true
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// DefaultKey names responses to requests that carry no key.
const DefaultKey = "default"

// Pool is the part of the worker pool the server drives.
type Pool interface {
	Do(ctx context.Context, req worker.Request) (worker.Response, error)
}

// Server receives compute requests on MQTT, hands them to the worker pool
// and publishes each response on the topic of its key. A request superseded
// by a newer one with the same key gets no response.
type Server struct {
	cfg    Config
	cli    pahoClient
	pool   Pool
	logger logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	wg      sync.WaitGroup
	backoff time.Duration
}

// NewServer connects to the broker and subscribes to the request topic.
// Requests are only accepted once Run has been called.
func NewServer(cfg Config, pool Pool) (*Server, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_server")
	s := &Server{
		cfg:     cfg,
		pool:    pool,
		logger:  log,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.RequestTopic, s.qos("request"), s.onRequest); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	s.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return s, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (s *Server) qos(kind string) byte {
	if q, ok := s.cfg.QoS[kind]; ok {
		return q
	}
	return 0
}

// Run accepts requests until ctx is canceled, then waits for the requests
// in flight.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	<-ctx.Done()
	s.mu.Lock()
	s.ctx = nil
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *Server) onRequest(_ paho.Client, msg paho.Message) {
	s.mu.Lock()
	ctx := s.ctx
	if ctx != nil {
		s.wg.Add(1)
	}
	s.mu.Unlock()
	if ctx == nil {
		s.logger.Warnf("dropping request on %s: server not running", msg.Topic())
		return
	}
	defer s.wg.Done()

	key, ok := s.cfg.keyFromTopic(msg.Topic())
	if !ok {
		s.logger.Warnf("ignoring request on unexpected topic %s", msg.Topic())
		return
	}
	req, err := worker.DecodeRequest(msg.Payload())
	if key == "" {
		key = req.Key
	}
	if key == "" {
		key = DefaultKey
	}
	if err != nil {
		s.logger.Errorf("failed to decode request: %v", err)
		s.publish(key, worker.Response{Key: key, Error: err.Error()})
		return
	}
	if req.Key == "" {
		req.Key = key
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// Do blocks until the response; the paho callback must not.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		resp, err := s.pool.Do(ctx, req)
		switch {
		case errors.Is(err, worker.ErrSuperseded):
			s.logger.Debugf("request %s superseded, no response", req.ID)
			return
		case err != nil && ctx.Err() != nil:
			return
		case err != nil:
			s.logger.Errorf("compute request %s: %v", req.ID, err)
			if resp.ID == "" {
				resp = worker.Response{ID: req.ID, Key: req.Key, Error: err.Error()}
			}
		}
		s.publish(key, resp)
	}()
}

func (s *Server) publish(key string, resp worker.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Errorf("encode response %s: %v", resp.ID, err)
		return
	}
	topic := s.cfg.responseTopicFor(key)
	var publishErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		token := s.cli.Publish(topic, s.qos("response"), false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			s.logger.Infof("sent response %s to %s", resp.ID, topic)
			return
		}
		s.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(s.backoff * time.Duration(1<<attempt))
	}
	coremon.CaptureException(errors.Join(ErrPublish, publishErr), map[string]string{
		"module":     "mqtt",
		"request_id": resp.ID,
		"key":        key,
	})
}

// ErrPublish marks a response that could not be delivered after all retries.
var ErrPublish = errors.New("mqtt: publish failed")

// Disconnect gracefully closes the MQTT connection.
func (s *Server) Disconnect() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
