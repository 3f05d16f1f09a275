package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/susu3304/pokerledger/internal/commands"
	"github.com/susu3304/pokerledger/internal/config"
	"github.com/susu3304/pokerledger/internal/ledger"
)

type Bot struct {
	session *discordgo.Session
	svc     *ledger.Service
	config  *config.Config
	log     zerolog.Logger
	digest  *digestWorker
}

func New(cfg *config.Config, svc *ledger.Service, log zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		svc:     svc,
		config:  cfg,
		log:     log.With().Str("component", "bot").Logger(),
	}
	if cfg.DigestChannelID != "" {
		bot.digest = newDigestWorker(session, svc, cfg.DigestChannelID, cfg.DigestInterval, bot.log)
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.digest.start()
	b.log.Info().Msg("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.digest.stop()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.log.Info().Str("user", event.User.Username).Msg("connected to Discord")

	for _, guild := range event.Guilds {
		b.registerGuildCommands(guild.ID)
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.log.Info().Str("guild", event.Name).Str("guild_id", event.ID).Msg("guild available, ensuring commands")
	b.registerGuildCommands(event.ID)
}

func (b *Bot) registerGuildCommands(guildID string) {
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, commands.GetCommands()); err != nil {
		b.log.Error().Err(err).Str("guild_id", guildID).Msg("failed to register commands")
		return
	}
	b.log.Debug().Str("guild_id", guildID).Msg("registered application commands")
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().Name == "poker" {
		commands.HandlePoker(s, i, b.svc, b.config, b.log)
	}
}
