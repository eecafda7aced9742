// Package bus answers spider queries over NATS request-reply. Requests carry the
// same comma-separated filter strings as the HTTP query string and replies
// carry the same JSON array, or an error object.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/dataset"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/query"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/spider"
)

type Request struct {
	Arms       string `json:"arms,omitempty"`
	Doses      string `json:"doses,omitempty"`
	TumorTypes string `json:"tumor_types,omitempty"`
}

// Values converts the request into query parameters.
func (r Request) Values() url.Values {
	v := url.Values{}
	if r.Arms != "" {
		v.Set(query.ParamArms, r.Arms)
	}
	if r.Doses != "" {
		v.Set(query.ParamDoses, r.Doses)
	}
	if r.TumorTypes != "" {
		v.Set(query.ParamTumorTypes, r.TumorTypes)
	}
	return v
}

type ErrorReply struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type Responder struct {
	svc     *spider.Service
	nc      *nats.Conn
	closed  chan struct{}
	timeout time.Duration
}

func NewResponder(svc *spider.Service, timeout time.Duration) *Responder {
	return &Responder{svc: svc, timeout: timeout}
}

// Start connects to url and serves requests on subject within queue group.
func (r *Responder) Start(natsURL, subject, queue string) error {
	closed := make(chan struct{})
	nc, err := nats.Connect(natsURL,
		nats.Name("spider_service"),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return err
	}

	if _, err := nc.QueueSubscribe(subject, queue, r.handleMsg); err != nil {
		nc.Close()
		return err
	}

	if err := nc.Flush(); err != nil {
		nc.Close()
		return err
	}

	r.nc = nc
	r.closed = closed
	log.Info().Str("subject", subject).Str("queue", queue).Msg("nats responder started")
	return nil
}

// Close drains the subscription, letting in-flight replies go out, and waits
// for the connection to close.
func (r *Responder) Close() {
	if r.nc == nil || r.nc.IsClosed() {
		return
	}
	if err := r.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("nats drain")
		r.nc.Close()
	}
	<-r.closed
}

func (r *Responder) handleMsg(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := msg.Respond(r.Handle(ctx, msg.Data)); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("nats respond")
	}
}

// Handle runs one query and returns the encoded reply.
func (r *Responder) Handle(ctx context.Context, data []byte) []byte {
	var req Request
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return encodeError("invalid payload", http.StatusBadRequest)
		}
	}

	rows, err := r.svc.Query(ctx, req.Values())
	if err != nil {
		var inputErr *query.InvalidInputError
		switch {
		case errors.As(err, &inputErr):
			return encodeError(inputErr.Error(), http.StatusBadRequest)
		case errors.Is(err, dataset.ErrUnavailable):
			return encodeError("dataset unavailable", http.StatusInternalServerError)
		default:
			log.Error().Err(err).Msg("spider query failed")
			return encodeError("internal error", http.StatusInternalServerError)
		}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		log.Error().Err(err).Msg("encode rows")
		return encodeError("serialization error", http.StatusInternalServerError)
	}
	return payload
}

func encodeError(msg string, status int) []byte {
	payload, _ := json.Marshal(ErrorReply{Error: msg, Status: status})
	return payload
}
