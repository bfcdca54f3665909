package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/db"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/event"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/media"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/repo"
)

// Notifier pushes an event to a user's live connection. Fire-and-forget:
// false means the user is offline or the send was dropped, which is not an
// error - the message store is the durable fallback.
type Notifier interface {
	PushToUser(userID string, ev event.WsEvent) bool
}

// SendMessageInput is the client-submitted content of a send request.
// Image and Video carry either media-host payloads or ready URLs.
type SendMessageInput struct {
	Text  string `json:"text"`
	Image string `json:"image"`
	Video string `json:"video"`
}

// MessageService bridges the durable and live delivery paths.
type MessageService interface {
	SendMessage(ctx context.Context, senderID, receiverID string, in SendMessageInput) (*model.Message, error)
	History(ctx context.Context, selfID, peerID string, page int64) (*db.PaginatedResult[model.Message], error)
	Contacts(ctx context.Context, selfID string) ([]model.User, error)
	MarkConversationRead(ctx context.Context, senderID, viewerID string) (int64, error)
	UnreadCounts(ctx context.Context, receiverID string) map[string]int64
	SetNotifier(n Notifier)
}

type messageService struct {
	messages repo.MessageRepository
	users    repo.UserRepository
	uploader media.Uploader
	notifier Notifier
	logger   *zap.Logger
}

// NewMessageService creates the delivery coordinator.
// Note: call SetNotifier() after creating the hub to complete the wiring.
func NewMessageService(messages repo.MessageRepository, users repo.UserRepository, uploader media.Uploader, logger *zap.Logger) MessageService {
	return &messageService{
		messages: messages,
		users:    users,
		uploader: uploader,
		logger:   logger,
	}
}

// SetNotifier wires the realtime push path.
func (s *messageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SendMessage validates and persists a message, then pushes a newMessage
// event to the receiver's live connection if one exists. The returned
// message is what the sender sees synchronously; its delivery/seen status
// only ever advances via receipts on the bus, never via this response.
func (s *messageService) SendMessage(ctx context.Context, senderID, receiverID string, in SendMessageInput) (*model.Message, error) {
	senderOID, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return nil, model.ErrInvalidUserID
	}
	receiverOID, err := primitive.ObjectIDFromHex(receiverID)
	if err != nil {
		return nil, model.ErrInvalidUserID
	}

	if in.Text == "" && in.Image == "" && in.Video == "" {
		return nil, model.ErrEmptyMessage
	}
	if len(in.Text) > model.MaxTextLength {
		return nil, model.ErrTextTooLong
	}

	var imageURL, videoURL string
	if in.Image != "" {
		imageURL, err = s.uploader.UploadImage(ctx, in.Image)
		if err != nil {
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
	}
	if in.Video != "" {
		videoURL, err = s.uploader.UploadVideo(ctx, in.Video)
		if err != nil {
			return nil, fmt.Errorf("video upload failed: %w", err)
		}
	}

	msg := &model.Message{
		SenderID:   senderOID,
		ReceiverID: receiverOID,
		Text:       in.Text,
		ImageURL:   imageURL,
		VideoURL:   videoURL,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
	}

	insertedID, err := s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.ID = insertedID

	s.pushNewMessage(ctx, msg)

	return msg, nil
}

// pushNewMessage looks up the receiver's live connection fresh and pushes
// the full message with denormalized sender metadata. A miss is silent.
func (s *messageService) pushNewMessage(ctx context.Context, msg *model.Message) {
	if s.notifier == nil {
		return
	}

	notification := model.MessageNotification{
		Message:          *msg,
		SenderName:       model.DefaultSenderName,
		SenderProfilePic: model.DefaultProfilePic,
	}
	if sender, err := s.users.GetUser(ctx, msg.SenderID.Hex()); err == nil {
		notification.SenderName = sender.FullName
		notification.SenderProfilePic = sender.ProfilePic
	}

	ev, err := event.New(event.EventNewMessage, notification)
	if err != nil {
		s.logger.Error("failed to build newMessage event", zap.Error(err))
		return
	}

	delivered := s.notifier.PushToUser(msg.ReceiverID.Hex(), ev)
	s.logger.Debug("newMessage push",
		zap.String("message_id", msg.ID.Hex()),
		zap.String("receiver_id", msg.ReceiverID.Hex()),
		zap.Bool("delivered", delivered),
	)
}

// History returns one page of the conversation between two users, both
// directions, oldest first.
func (s *messageService) History(ctx context.Context, selfID, peerID string, page int64) (*db.PaginatedResult[model.Message], error) {
	selfOID, err := primitive.ObjectIDFromHex(selfID)
	if err != nil {
		return nil, model.ErrInvalidUserID
	}
	peerOID, err := primitive.ObjectIDFromHex(peerID)
	if err != nil {
		return nil, model.ErrInvalidUserID
	}

	return s.messages.Between(ctx, selfOID, peerOID, page)
}

// Contacts returns the sidebar user list: everyone except the caller.
func (s *messageService) Contacts(ctx context.Context, selfID string) ([]model.User, error) {
	return s.users.ListExcept(ctx, selfID)
}

// MarkConversationRead applies the durable seen transition for every unread
// message from senderID to viewerID.
func (s *messageService) MarkConversationRead(ctx context.Context, senderID, viewerID string) (int64, error) {
	senderOID, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return 0, model.ErrInvalidUserID
	}
	viewerOID, err := primitive.ObjectIDFromHex(viewerID)
	if err != nil {
		return 0, model.ErrInvalidUserID
	}

	return s.messages.MarkConversationRead(ctx, senderOID, viewerOID)
}

// UnreadCounts groups the caller's unread messages by sender. Availability
// beats completeness here: any failure degrades to an empty result.
func (s *messageService) UnreadCounts(ctx context.Context, receiverID string) map[string]int64 {
	receiverOID, err := primitive.ObjectIDFromHex(receiverID)
	if err != nil {
		return map[string]int64{}
	}

	counts, err := s.messages.UnreadCounts(ctx, receiverOID)
	if err != nil {
		s.logger.Warn("unread counts degraded to empty",
			zap.String("receiver_id", receiverID),
			zap.Error(err),
		)
		return map[string]int64{}
	}
	return counts
}
