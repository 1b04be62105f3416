package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
)

const (
	MaxMessageLength  = 4000
	MaxDocumentSize   = 20 << 20
	replyPreviewRunes = 200
)

type MessageService struct {
	repos     Repos
	groups    *GroupService
	pub       Publisher
	uploadDir string
	now       func() time.Time
}

func messageDTO(m repositories.MessageRecord, options []repositories.PollOptionRecord) models.ChatMessageDTO {
	dto := models.ChatMessageDTO{
		GroupID:           m.GroupID,
		MessageID:         m.ID,
		SenderID:          m.SenderID,
		SenderName:        m.SenderName,
		Content:           m.Content,
		Timestamp:         models.NewLocalTime(m.CreatedAt),
		MessageType:       m.MessageType,
		ReplyToMessageID:  m.ReplyToMessageID,
		ReplyToContent:    m.ReplyToContent,
		ReplyToSenderName: m.ReplyToSenderName,
		PollID:            m.PollID,
	}
	for _, o := range options {
		dto.PollOptions = append(dto.PollOptions, pollOptionDTO(o))
	}
	return dto
}

func pollOptionDTO(o repositories.PollOptionRecord) models.PollOption {
	return models.PollOption{ID: o.ID, OptionText: o.OptionText, VoteCount: o.VoteCount}
}

func (s *MessageService) broadcast(groupID int64, payload any) {
	if err := s.pub.Publish(GroupTopic(groupID), payload); err != nil {
		logger.Errorf("broadcast to group %d: %v", groupID, err)
	}
}

// History returns the group's messages oldest first, polls with options.
func (s *MessageService) History(viewerID, groupID int64) ([]models.ChatMessageDTO, error) {
	if _, err := s.groups.RequireMember(groupID, viewerID); err != nil {
		return nil, err
	}
	rows, err := s.repos.Messages.ListByGroup(groupID)
	if err != nil {
		return nil, err
	}
	var pollIDs []int64
	for _, m := range rows {
		if m.PollID != nil {
			pollIDs = append(pollIDs, *m.PollID)
		}
	}
	options, err := s.repos.Messages.PollOptions(pollIDs)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChatMessageDTO, 0, len(rows))
	for _, m := range rows {
		var opts []repositories.PollOptionRecord
		if m.PollID != nil {
			opts = options[*m.PollID]
		}
		out = append(out, messageDTO(m, opts))
	}
	return out, nil
}

// Send stores a chat message published over the broker and broadcasts
// the stored form. The sender is always the connected user.
func (s *MessageService) Send(sender models.User, groupID int64, in models.OutgoingMessage) (models.ChatMessageDTO, error) {
	if _, err := s.groups.RequireMember(groupID, sender.ID); err != nil {
		return models.ChatMessageDTO{}, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.ChatMessageDTO{}, fail(ErrInvalid, "message is empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return models.ChatMessageDTO{}, fail(ErrInvalid, "message is longer than %d characters", MaxMessageLength)
	}

	m := repositories.MessageRecord{
		GroupID:     groupID,
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		Content:     content,
		MessageType: models.MessageTypeText,
		CreatedAt:   s.now(),
	}
	if in.ReplyToMessageID != nil {
		parent, err := s.repos.Messages.FindByID(*in.ReplyToMessageID)
		if err != nil || parent.GroupID != groupID {
			return models.ChatMessageDTO{}, fail(ErrInvalid, "replied-to message not found")
		}
		m.ReplyToMessageID = &parent.ID
		m.ReplyToSenderName = parent.SenderName
		m.ReplyToContent = preview(parent.Content)
	}
	if err := s.repos.Messages.Create(&m); err != nil {
		return models.ChatMessageDTO{}, err
	}
	dto := messageDTO(m, nil)
	s.broadcast(groupID, dto)
	return dto, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= replyPreviewRunes {
		return content
	}
	return string([]rune(content)[:replyPreviewRunes]) + "..."
}

// Delete lets the sender or a group admin remove a message.
func (s *MessageService) Delete(viewerID, groupID, messageID int64) error {
	role, err := s.groups.RequireMember(groupID, viewerID)
	if err != nil {
		return err
	}
	m, err := s.repos.Messages.FindByID(messageID)
	if err != nil || m.GroupID != groupID {
		return fail(ErrNotFound, "message not found")
	}
	if m.SenderID != viewerID && role != models.RoleOwner && role != models.RoleAdmin {
		return fail(ErrForbidden, "you can only delete your own messages")
	}
	var stored string
	if m.MessageType == models.MessageTypeDocument {
		if doc, err := s.repos.Messages.FindDocumentByMessage(m.ID); err == nil {
			stored = doc.StoredName
		}
	}
	if err := s.repos.Messages.Delete(m); err != nil {
		return err
	}
	if stored != "" {
		if err := os.Remove(filepath.Join(s.uploadDir, stored)); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Errorf("remove document %s: %v", stored, err)
		}
	}
	return nil
}

func (s *MessageService) Pins(viewerID, groupID int64) ([]models.PinnedMessage, error) {
	if _, err := s.groups.RequireMember(groupID, viewerID); err != nil {
		return nil, err
	}
	rows, err := s.repos.Messages.ListPins(groupID)
	if err != nil {
		return nil, err
	}
	out := make([]models.PinnedMessage, 0, len(rows))
	for _, p := range rows {
		out = append(out, models.PinnedMessage{
			ID:        p.ID,
			GroupID:   p.GroupID,
			MessageID: p.MessageID,
			PinnedBy:  p.PinnedBy,
			PinnedAt:  models.NewLocalTime(p.PinnedAt),
		})
	}
	return out, nil
}

func (s *MessageService) Pin(viewerID, groupID, messageID int64) (models.PinnedMessage, error) {
	if _, err := s.groups.RequireMember(groupID, viewerID); err != nil {
		return models.PinnedMessage{}, err
	}
	m, err := s.repos.Messages.FindByID(messageID)
	if err != nil || m.GroupID != groupID {
		return models.PinnedMessage{}, fail(ErrNotFound, "message not found")
	}
	if _, err := s.repos.Messages.FindPin(groupID, messageID); err == nil {
		return models.PinnedMessage{}, fail(ErrConflict, "message is already pinned")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PinnedMessage{}, err
	}
	p := repositories.PinRecord{GroupID: groupID, MessageID: messageID, PinnedBy: viewerID, PinnedAt: s.now()}
	if err := s.repos.Messages.CreatePin(&p); err != nil {
		return models.PinnedMessage{}, err
	}
	return models.PinnedMessage{
		ID:        p.ID,
		GroupID:   groupID,
		MessageID: messageID,
		PinnedBy:  viewerID,
		PinnedAt:  models.NewLocalTime(p.PinnedAt),
	}, nil
}

func (s *MessageService) Unpin(viewerID, groupID, messageID int64) error {
	if _, err := s.groups.RequireMember(groupID, viewerID); err != nil {
		return err
	}
	if _, err := s.repos.Messages.FindPin(groupID, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, "message is not pinned")
		}
		return err
	}
	return s.repos.Messages.DeletePin(groupID, messageID)
}

// CreatePoll stores the poll as a POLL message and broadcasts it.
func (s *MessageService) CreatePoll(viewer models.User, groupID int64, req models.CreatePollRequest) (models.ChatMessageDTO, error) {
	if _, err := s.groups.RequireMember(groupID, viewer.ID); err != nil {
		return models.ChatMessageDTO{}, err
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return models.ChatMessageDTO{}, fail(ErrInvalid, "a poll needs a question")
	}
	now := s.now()
	poll := repositories.PollRecord{GroupID: groupID, CreatorID: viewer.ID, Question: question, CreatedAt: now}
	for _, o := range req.Options {
		if o = strings.TrimSpace(o); o != "" {
			poll.Options = append(poll.Options, repositories.PollOptionRecord{OptionText: o})
		}
	}
	if len(poll.Options) < 2 {
		return models.ChatMessageDTO{}, fail(ErrInvalid, "a poll needs at least two options")
	}
	m := repositories.MessageRecord{
		GroupID:     groupID,
		SenderID:    viewer.ID,
		SenderName:  viewer.Name,
		Content:     question,
		MessageType: models.MessageTypePoll,
		CreatedAt:   now,
	}
	if err := s.repos.Messages.CreatePoll(&poll, &m); err != nil {
		return models.ChatMessageDTO{}, err
	}
	dto := messageDTO(m, poll.Options)
	s.broadcast(groupID, dto)
	return dto, nil
}

// Vote counts the viewer's choice and broadcasts every option whose count
// moved.
func (s *MessageService) Vote(viewerID, pollID, optionID int64) (models.PollOption, error) {
	poll, err := s.repos.Messages.FindPoll(pollID)
	if err != nil {
		return models.PollOption{}, lookup(err, "poll")
	}
	if _, err := s.groups.RequireMember(poll.GroupID, viewerID); err != nil {
		return models.PollOption{}, err
	}
	changed, err := s.repos.Messages.Vote(pollID, optionID, viewerID)
	switch {
	case errors.Is(err, repositories.ErrAlreadyVoted):
		return models.PollOption{}, fail(ErrConflict, "you already voted for this option")
	case err != nil:
		return models.PollOption{}, lookup(err, "poll option")
	}
	var picked models.PollOption
	for _, o := range changed {
		s.broadcast(poll.GroupID, models.PollVote{
			MessageType: models.MessageTypePollVote,
			PollID:      pollID,
			OptionID:    o.ID,
			VoteCount:   o.VoteCount,
		})
		if o.ID == optionID {
			picked = pollOptionDTO(o)
		}
	}
	return picked, nil
}

// Upload stores the file under the upload dir and posts a document
// message for it.
func (s *MessageService) Upload(viewer models.User, groupID int64, filename string, size int64, r io.Reader) (models.ChatMessageDTO, error) {
	if _, err := s.groups.RequireMember(groupID, viewer.ID); err != nil {
		return models.ChatMessageDTO{}, err
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return models.ChatMessageDTO{}, fail(ErrInvalid, "file name is required")
	}
	if size > MaxDocumentSize {
		return models.ChatMessageDTO{}, fail(ErrInvalid, "file is larger than %d MB", MaxDocumentSize>>20)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return models.ChatMessageDTO{}, fmt.Errorf("create upload dir: %w", err)
	}
	stored := uuid.NewString() + filepath.Ext(name)
	path := filepath.Join(s.uploadDir, stored)
	out, err := os.Create(path)
	if err != nil {
		return models.ChatMessageDTO{}, fmt.Errorf("store upload: %w", err)
	}
	written, err := io.Copy(out, io.LimitReader(r, MaxDocumentSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > MaxDocumentSize {
		err = fail(ErrInvalid, "file is larger than %d MB", MaxDocumentSize>>20)
	}
	if err != nil {
		_ = os.Remove(path)
		return models.ChatMessageDTO{}, err
	}

	now := s.now()
	m := repositories.MessageRecord{
		GroupID:     groupID,
		SenderID:    viewer.ID,
		SenderName:  viewer.Name,
		Content:     name,
		MessageType: models.MessageTypeDocument,
		CreatedAt:   now,
	}
	doc := repositories.DocumentRecord{
		GroupID:          groupID,
		OriginalFilename: name,
		StoredName:       stored,
		FileType:         strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		FileSize:         written,
		SenderName:       viewer.Name,
		UploadTime:       now,
	}
	if err := s.repos.Messages.CreateDocument(&doc, &m); err != nil {
		_ = os.Remove(path)
		return models.ChatMessageDTO{}, err
	}
	dto := messageDTO(m, nil)
	s.broadcast(groupID, dto)
	return dto, nil
}

func (s *MessageService) Documents(viewerID, groupID int64) ([]models.Document, error) {
	if _, err := s.groups.RequireMember(groupID, viewerID); err != nil {
		return nil, err
	}
	rows, err := s.repos.Messages.ListDocuments(groupID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Document, 0, len(rows))
	for _, d := range rows {
		out = append(out, models.Document{
			ID:               d.ID,
			MessageID:        d.MessageID,
			OriginalFilename: d.OriginalFilename,
			FileType:         d.FileType,
			FileSize:         d.FileSize,
			UploadTime:       models.NewLocalTime(d.UploadTime),
			SenderName:       d.SenderName,
		})
	}
	return out, nil
}

// Document resolves the file behind a document message: its path on disk
// and the name to download it as.
func (s *MessageService) Document(viewerID, messageID int64) (path, name string, err error) {
	doc, err := s.repos.Messages.FindDocumentByMessage(messageID)
	if err != nil {
		return "", "", lookup(err, "document")
	}
	if _, err := s.groups.RequireMember(doc.GroupID, viewerID); err != nil {
		return "", "", err
	}
	return filepath.Join(s.uploadDir, doc.StoredName), doc.OriginalFilename, nil
}
