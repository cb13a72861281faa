package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"webhookd/internal/models"
)

// ErrInvalidSignature covers both a missing and a mismatched X-Signature.
// Callers must not distinguish the two cases in their responses.
var ErrInvalidSignature = errors.New("invalid signature")

// ErrDuplicateMessage is returned by a repository when the message_id is
// already present. It marks a normal outcome, not a failure.
var ErrDuplicateMessage = errors.New("message_id already exists")

// IngestResult tags the outcome of a successful delivery.
type IngestResult string

const (
	ResultCreated   IngestResult = "created"
	ResultDuplicate IngestResult = "duplicate"
)

// topSendersLimit caps the per-sender breakdown in stats.
const topSendersLimit = 10

// QueryFilter narrows and pages a message listing. Zero-value string fields
// mean "no filter"; the conditions combine conjunctively.
type QueryFilter struct {
	From   string
	Since  string
	Q      string
	Limit  int
	Offset int
}

type MessageRepository interface {
	InsertMessage(msg models.Message) error
	QueryMessages(filter QueryFilter) ([]models.Message, int, error)
	Stats(topSenders int) (models.StatsSummary, error)
	Ping() error
}

// MessageCache records ingested message ids out-of-band. Writes are
// best-effort; the repository's primary key stays the source of truth.
type MessageCache interface {
	StoreMessage(messageID string, createdAt time.Time) error
}

type MessageService struct {
	repo   MessageRepository
	cache  MessageCache
	secret []byte
	log    *slog.Logger
}

func NewMessageService(repo MessageRepository, cache MessageCache, secret string, log *slog.Logger) *MessageService {
	return &MessageService{repo: repo, cache: cache, secret: []byte(secret), log: log}
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body against the
// supplied header value in constant time.
func (s *MessageService) VerifySignature(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(rawBody)
	computed := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(computed), []byte(signature)) == 1
}

// Ingest runs the delivery pipeline: authenticate, then parse and validate,
// then insert. The signature is verified before the body is parsed, so a
// malformed body never leaks parse detail to an unauthenticated caller.
func (s *MessageService) Ingest(rawBody []byte, signature string) (IngestResult, error) {
	if !s.VerifySignature(rawBody, signature) {
		return "", ErrInvalidSignature
	}

	var msg models.Message
	if err := json.Unmarshal(rawBody, &msg); err != nil {
		return "", &models.ValidationError{Fields: []models.FieldError{
			{Field: "body", Message: "malformed JSON"},
		}}
	}
	if verr := msg.Validate(); verr != nil {
		return "", verr
	}

	now := time.Now().UTC()
	msg.CreatedAt = now.Format(time.RFC3339)
	if err := s.repo.InsertMessage(msg); err != nil {
		if errors.Is(err, ErrDuplicateMessage) {
			s.log.Info("duplicate delivery ignored", "message_id", msg.MessageID)
			return ResultDuplicate, nil
		}
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.StoreMessage(msg.MessageID, now); err != nil {
			s.log.Warn("failed to cache ingested message", "message_id", msg.MessageID, "error", err)
		}
	}
	s.log.Info("message ingested", "message_id", msg.MessageID, "from", msg.From)
	return ResultCreated, nil
}

func (s *MessageService) ListMessages(filter QueryFilter) ([]models.Message, int, error) {
	return s.repo.QueryMessages(filter)
}

func (s *MessageService) Stats() (models.StatsSummary, error) {
	return s.repo.Stats(topSendersLimit)
}

// Ready reports whether the service can currently take traffic: the shared
// secret is configured and the store answers a round trip.
func (s *MessageService) Ready() error {
	if len(s.secret) == 0 {
		return errors.New("webhook secret not configured")
	}
	return s.repo.Ping()
}
