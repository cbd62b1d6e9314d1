// Package admission decides whether a submitted listing may be appended to
// the log: structural checks, ownership proof, then a single append.
package admission

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/torlist/internal/apperr"
	"github.com/starford/torlist/internal/logstore"
	"github.com/starford/torlist/internal/metrics"
	"github.com/starford/torlist/internal/models"
	"github.com/starford/torlist/internal/sigverify"
)

// idBytes is the number of random bytes in a listing identifier.
const idBytes = 23

// Verifier checks an ownership proof.
type Verifier interface {
	Verify(ownerAddress, signature, payload string) (bool, error)
}

// Candidate is an unvalidated submission.
type Candidate struct {
	Entry       string
	Description string
	SLPAddress  string
	Signature   string
	Category    string
}

// Service admits listings into a logstore.Store.
type Service struct {
	store    logstore.Store
	verifier Verifier
	logger   *slog.Logger
	newID    func() (string, error)
	onAdmit  func(models.Listing)
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator replaces the random identifier source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.newID = fn }
}

// WithAdmitHook registers fn to run after each successful append.
func WithAdmitHook(fn func(models.Listing)) Option {
	return func(s *Service) { s.onAdmit = fn }
}

// NewService creates a Service.
func NewService(store logstore.Store, verifier Verifier, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, verifier: verifier, logger: logger, newID: RandomID}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RandomID returns 23 random bytes, hex encoded.
func RandomID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func mustBeString(field string) validation.Rule {
	return validation.Required.Error("Property '" + field + "' must be a string!")
}

var categoryRule = validation.By(func(value interface{}) error {
	if s, _ := value.(string); !models.Category(s).Valid() {
		return errors.New("Property 'category' must be 'bch', 'ecommerce', 'info', 'eth', or 'ipfs'!")
	}
	return nil
})

// Submit validates c as received, checks its signature over the entry as
// received, then appends the trimmed listing. It returns the new listing
// identifier.
func (s *Service) Submit(ctx context.Context, c Candidate) (string, error) {
	const op = "admission: submit"

	// Order matters: the first failing field is the one reported.
	checks := []struct {
		value string
		rules []validation.Rule
	}{
		{c.Entry, []validation.Rule{mustBeString(models.FieldEntry)}},
		{c.Description, []validation.Rule{mustBeString(models.FieldDescription)}},
		{c.SLPAddress, []validation.Rule{mustBeString(models.FieldSLPAddress)}},
		{c.Signature, []validation.Rule{mustBeString(models.FieldSignature)}},
		{c.Category, []validation.Rule{mustBeString(models.FieldCategory), categoryRule}},
	}
	for _, chk := range checks {
		if err := validation.Validate(chk.value, chk.rules...); err != nil {
			metrics.Admissions.WithLabelValues(metrics.OutcomeInvalid).Inc()
			return "", apperr.Validation(op, err.Error())
		}
	}

	if err := s.verify(c); err != nil {
		if apperr.Is(err, apperr.KindSignature) {
			metrics.Admissions.WithLabelValues(metrics.OutcomeBadSig).Inc()
		} else {
			metrics.Admissions.WithLabelValues(metrics.OutcomeInvalid).Inc()
		}
		return "", err
	}

	l := models.Listing{
		Entry:        strings.TrimSpace(c.Entry),
		Description:  strings.TrimSpace(c.Description),
		OwnerAddress: strings.TrimSpace(c.SLPAddress),
		Signature:    strings.TrimSpace(c.Signature),
		Category:     models.Category(strings.TrimSpace(c.Category)),
	}

	id, err := s.newID()
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, op, err)
	}
	l.Identifier = id

	start := time.Now()
	_, err = s.store.Append(ctx, l.Record())
	metrics.StoreAppendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Admissions.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
		s.logger.Error("admission: append failed", slog.String("error", err.Error()))
		return "", apperr.Wrap(apperr.KindUnavailable, op, err)
	}

	metrics.Admissions.WithLabelValues(metrics.OutcomeAccepted).Inc()
	s.logger.Info("admission: accepted",
		slog.String("id", id),
		slog.String("category", string(l.Category)))
	if s.onAdmit != nil {
		s.onAdmit(l)
	}
	return id, nil
}

func (s *Service) verify(c Candidate) error {
	const op = "admission: verify"
	ok, err := s.verifier.Verify(c.SLPAddress, c.Signature, c.Entry)
	if err != nil {
		var vErr *sigverify.VerificationError
		if errors.As(err, &vErr) && vErr.Stage == sigverify.StageAddress {
			return &apperr.Error{
				Kind: apperr.KindValidation,
				Op:   op,
				Msg:  "Property 'slpAddress' is not a valid BCH address!",
				Err:  err,
			}
		}
		return &apperr.Error{Kind: apperr.KindSignature, Op: op, Msg: "Invalid signature", Err: err}
	}
	if !ok {
		return apperr.New(apperr.KindSignature, op, "Invalid signature")
	}
	return nil
}
