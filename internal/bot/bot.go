package bot

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/database"
	"github.com/phishguard/phishguard/internal/moderation"
	"github.com/phishguard/phishguard/internal/moderation/detector"
	"github.com/phishguard/phishguard/internal/moderation/ratelimit"
	"github.com/phishguard/phishguard/internal/phone"
	"github.com/phishguard/phishguard/internal/redis"
	"github.com/phishguard/phishguard/internal/setup/config"
)

// Bot wires the Discord gateway to the moderation pipeline and handles the
// analysis slash commands. Every guild message flows through the pipeline;
// commands are rate limited separately from message analysis.
type Bot struct {
	db          database.Client
	client      bot.Client
	pipeline    *moderation.Pipeline
	guard       moderation.Guard
	limiter     moderation.Admitter
	analyzer    *phone.Analyzer
	adminUserID snowflake.ID
	logger      *zap.Logger
}

// New initializes a Bot instance by assembling the moderation pipeline and
// its collaborators, then configuring the Discord client with the gateway
// intents and event listeners it needs.
func New(
	cfg *config.Config,
	db database.Client,
	redisManager *redis.Manager,
	logger *zap.Logger,
) (*Bot, error) {
	ratelimitClient, err := redisManager.GetClient(redis.RatelimitDBIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit client: %w", err)
	}

	limiter := ratelimit.NewLimiter(ratelimitClient, &cfg.Common.RateLimits, logger)
	guard := moderation.NewGuard(db)

	b := &Bot{
		db:          db,
		guard:       guard,
		limiter:     limiter,
		analyzer:    phone.NewAnalyzer(&cfg.Common.Phone, cfg.Common.Detection.BankPrefixes),
		adminUserID: snowflake.ID(cfg.Bot.Discord.AdminUserID),
		logger:      logger.Named("bot"),
	}

	// Configure Discord client with required gateway intents and event handlers
	client, err := disgo.New(cfg.Bot.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnGuildMessageCreate:            b.handleGuildMessageCreate,
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
		}),
	)
	if err != nil {
		return nil, err
	}

	b.client = client

	// The transport needs the client's REST module, so the pipeline is
	// assembled after the client
	transport := NewTransport(client.Rest(), &cfg.Bot, logger)
	b.pipeline = moderation.NewPipeline(
		guard,
		limiter,
		detector.New(&cfg.Common.Detection),
		transport,
		db.Model().Event(),
		cfg.Common.RateLimits.AuditCleanMessages,
		logger,
	)

	return b, nil
}

// Start registers global commands with Discord and opens the gateway
// connection.
func (b *Bot) Start() error {
	b.logger.Info("Registering commands")

	_, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        PhoneCommandName,
			Description: "Analyze a phone number for operator, bank, and region",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "number",
					Description: "The phone number to analyze",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        SecurityCommandName,
			Description: "Show security recommendations",
		},
		discord.SlashCommandCreate{
			Name:        StatsCommandName,
			Description: "Show moderation statistics",
		},
		discord.SlashCommandCreate{
			Name:        BlockCommandName,
			Description: "Block a user from having messages analyzed",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to block",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "reason",
					Description: "Why the user is being blocked",
				},
				discord.ApplicationCommandOptionInt{
					Name:        "hours",
					Description: "Block duration in hours, indefinite if omitted",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        UnblockCommandName,
			Description: "Remove a user from the blocklist",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "The user to unblock",
					Required:    true,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")

	return b.client.OpenGateway(context.Background())
}

// Close gracefully shuts down the Discord gateway connection.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")
	b.client.Close(context.Background())
}

// handleGuildMessageCreate offers every non-bot guild message to the
// moderation pipeline. Processing happens in a goroutine so a slow
// pipeline never blocks the gateway event loop.
func (b *Bot) handleGuildMessageCreate(event *events.GuildMessageCreate) {
	msg := event.Message
	if msg.Author.Bot || msg.Author.System {
		return
	}

	go b.pipeline.HandleMessage(context.Background(), &moderation.IncomingMessage{
		MessageID:   uint64(msg.ID),
		ChannelID:   uint64(msg.ChannelID),
		UserID:      uint64(msg.Author.ID),
		Username:    msg.Author.Username,
		DisplayName: msg.Author.EffectiveName(),
		Text:        msg.Content,
	})
}
