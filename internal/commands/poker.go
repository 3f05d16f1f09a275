package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/susu3304/pokerledger/internal/config"
	"github.com/susu3304/pokerledger/internal/ledger"
)

const defaultSessionLimit = 5

// HandlePoker dispatches /poker subcommands. Replies longer than one message
// are continued in the channel.
func HandlePoker(s *discordgo.Session, i *discordgo.InteractionCreate, svc *ledger.Service, cfg *config.Config, log zerolog.Logger) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lines, err := pokerReply(ctx, svc, cfg, sub)
	if err != nil {
		log.Error().Err(err).Str("subcommand", sub.Name).Msg("poker command failed")
		lines = []string{"Something went wrong, please try again later."}
	}

	messages := SplitMessage(lines)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: messages[0],
		},
	}); err != nil {
		log.Error().Err(err).Msg("failed to respond to interaction")
		return
	}
	for _, m := range messages[1:] {
		if _, err := s.ChannelMessageSend(i.ChannelID, m); err != nil {
			log.Error().Err(err).Msg("failed to send follow-up message")
			return
		}
	}
}

func pokerReply(ctx context.Context, svc *ledger.Service, cfg *config.Config, sub *discordgo.ApplicationCommandInteractionDataOption) ([]string, error) {
	switch sub.Name {
	case "balances":
		players, err := svc.ListPlayers(ctx)
		if err != nil {
			return nil, err
		}
		return FormatBalances(players), nil

	case "settle":
		players, err := svc.ListPlayers(ctx)
		if err != nil {
			return nil, err
		}
		settlement, err := svc.Settlement(ctx)
		if err != nil {
			return nil, err
		}
		return FormatSettlement(settlement, NameIndex(players)), nil

	case "sessions":
		limit := defaultSessionLimit
		for _, opt := range sub.Options {
			if opt.Name == "limit" {
				limit = int(opt.IntValue())
			}
		}
		players, err := svc.ListPlayers(ctx)
		if err != nil {
			return nil, err
		}
		sessions, err := svc.ListSessions(ctx)
		if err != nil {
			return nil, err
		}
		return FormatSessions(sessions, NameIndex(players), limit), nil

	case "stats":
		var player string
		for _, opt := range sub.Options {
			if opt.Name == "player" {
				player = opt.StringValue()
			}
		}
		stats, err := svc.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return FormatStats(stats, player), nil

	case "web":
		return []string{fmt.Sprintf("WebUI URL: %s", cfg.WebUIBaseURL)}, nil
	}
	return nil, fmt.Errorf("unknown subcommand %q", sub.Name)
}
