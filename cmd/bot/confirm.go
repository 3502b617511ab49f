package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/helpdesk/pkg/messages"
	"github.com/google/uuid"
)

const (
	// confirmPrefix is the custom ID prefix of confirmation buttons.
	confirmPrefix = "confirm"

	confirmYes = "yes"
	confirmNo  = "no"
)

// confirmations tracks the confirmation prompts waiting for an answer.
type confirmations struct {
	mu      sync.Mutex
	pending map[string]chan bool
}

func newConfirmations() *confirmations {
	return &confirmations{
		pending: make(map[string]chan bool),
	}
}

// open registers a prompt. The returned function forgets the prompt and must be called.
func (c *confirmations) open() (string, <-chan bool, func()) {
	id := uuid.NewString()
	ch := make(chan bool, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	return id, ch, func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}
}

// resolve delivers an answer, reporting false when the prompt is unknown or already answered.
func (c *confirmations) resolve(id string, answer bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)

	ch <- answer
	return true
}

func (c *confirmations) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func confirmButtonID(id string, answer bool) string {
	value := confirmNo
	if answer {
		value = confirmYes
	}
	return strings.Join([]string{confirmPrefix, id, value}, ":")
}

// parseConfirmArgs parses the custom ID segments after the prefix.
func parseConfirmArgs(args []string) (string, bool, error) {
	if len(args) != 2 {
		return "", false, fmt.Errorf("malformed confirmation id %q", strings.Join(args, ":"))
	}

	switch args[1] {
	case confirmYes:
		return args[0], true, nil
	case confirmNo:
		return args[0], false, nil
	default:
		return "", false, fmt.Errorf("unknown confirmation answer %q", args[1])
	}
}

// interactionConfirmer asks for confirmation with an ephemeral Yes/No prompt.
type interactionConfirmer struct {
	c *confirmations
	i *interaction
}

func (ic *interactionConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	id, answers, done := ic.c.open()
	defer done()

	if err := ic.i.respond(&discordgo.InteractionResponseData{
		Flags: discordgo.MessageFlagsEphemeral,
		Embeds: []*discordgo.MessageEmbed{
			embed("Confirm Admin Replacement", prompt, messages.ColorError),
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    messages.ConfirmYes,
						Style:    discordgo.SuccessButton,
						CustomID: confirmButtonID(id, true),
					},
					discordgo.Button{
						Label:    messages.ConfirmNo,
						Style:    discordgo.DangerButton,
						CustomID: confirmButtonID(id, false),
					},
				},
			},
		},
	}); err != nil {
		return false, fmt.Errorf("error sending confirmation prompt: %w", err)
	}

	select {
	case answer := <-answers:
		return answer, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// confirmComponentProcessor handles clicks on confirmation buttons.
func confirmComponentProcessor(_ context.Context, a IApp, i *interaction, args []string) error {
	id, answer, err := parseConfirmArgs(args)
	if err != nil {
		return err
	}

	description := "Answer received."
	if !a.Confirmations().resolve(id, answer) {
		description = "This confirmation has expired."
	}

	return i.update(&discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed(messages.TitleInfo, description, messages.ColorInfo)},
		Components: []discordgo.MessageComponent{},
	})
}
