package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

// History returns the group's stored messages, normalized.
func (c *APIClient) History(groupID int64) ([]models.ChatMessage, error) {
	body, err := c.get(fmt.Sprintf("/groups/%d/messages", groupID))
	if err != nil {
		return nil, err
	}
	return models.NormalizeMessages(body, c.now())
}

func (c *APIClient) DeleteMessage(groupID int64, messageID string) error {
	_, err := c.delete(fmt.Sprintf("/groups/%d/messages/%s", groupID, messageID), nil)
	return err
}

func (c *APIClient) Pins(groupID int64) ([]models.PinnedMessage, error) {
	var pins []models.PinnedMessage
	body, err := c.get(fmt.Sprintf("/groups/%d/pins", groupID))
	if err != nil {
		return nil, err
	}
	err = decode(body, &pins)
	return pins, err
}

func (c *APIClient) PinMessage(groupID int64, messageID string) error {
	_, err := c.post(fmt.Sprintf("/groups/%d/pins/messages/%s", groupID, messageID), nil)
	return err
}

func (c *APIClient) UnpinMessage(groupID int64, messageID string) error {
	_, err := c.delete(fmt.Sprintf("/groups/%d/pins/messages/%s", groupID, messageID), nil)
	return err
}

// CreatePoll drops blank options; at least two must remain.
func (c *APIClient) CreatePoll(groupID int64, question string, options []string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return errors.New("a poll needs a question")
	}
	var kept []string
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			kept = append(kept, o)
		}
	}
	if len(kept) < 2 {
		return errors.New("a poll needs at least two options")
	}
	req := models.CreatePollRequest{CreatorID: c.CurrentUser().ID, Question: question, Options: kept}
	_, err := c.post(fmt.Sprintf("/groups/%d/polls", groupID), req)
	return err
}

func (c *APIClient) Vote(pollID, optionID int64) error {
	_, err := c.post(fmt.Sprintf("/groups/polls/%d/options/%d/vote", pollID, optionID), models.VoteRequest{VoterID: c.CurrentUser().ID})
	return err
}
