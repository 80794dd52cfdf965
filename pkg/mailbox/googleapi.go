// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package mailbox

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/gmail/v1"
)

// googleClient adapts *gmail.Service to the Client interface.
type googleClient struct {
	svc *gmail.Service
}

func NewGoogleClient(svc *gmail.Service) Client {
	return &googleClient{svc: svc}
}

func (g *googleClient) EnsureLabel(ctx context.Context, name string) (string, error) {
	res, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}
	for _, l := range res.Labels {
		if l.Name == name {
			return l.Id, nil
		}
	}
	created, err := g.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	return created.Id, nil
}

func (g *googleClient) HistoryAdded(ctx context.Context, startHistoryID string, pageSize int64) ([]string, error) {
	start, err := strconv.ParseUint(startHistoryID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse history id %q: %w", startHistoryID, err)
	}

	var ids []string
	pageToken := ""
	for {
		call := g.svc.Users.History.List("me").
			StartHistoryId(start).
			HistoryTypes("messageAdded").
			MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list history from %s: %w", startHistoryID, err)
		}
		for _, h := range res.History {
			for _, added := range h.MessagesAdded {
				if added.Message != nil && added.Message.Id != "" {
					ids = append(ids, added.Message.Id)
				}
			}
		}
		if res.NextPageToken == "" {
			return ids, nil
		}
		pageToken = res.NextPageToken
	}
}

func (g *googleClient) GetMessage(ctx context.Context, id string) (*Message, error) {
	msg, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	m := &Message{ID: id}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			m.Headers = append(m.Headers, Header{Name: h.Name, Value: h.Value})
		}
		m.Payload = toPart(msg.Payload)
	}
	return m, nil
}

func toPart(p *gmail.MessagePart) *Part {
	part := &Part{MIMEType: p.MimeType}
	if p.Body != nil {
		part.Data = p.Body.Data
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, toPart(child))
	}
	return part
}

func (g *googleClient) SendRaw(ctx context.Context, raw string) error {
	_, err := g.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (g *googleClient) AddLabel(ctx context.Context, id, labelID string) error {
	_, err := g.svc.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("label message %s: %w", id, err)
	}
	return nil
}
