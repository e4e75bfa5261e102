package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mealplanr/internal/catalog"
	"mealplanr/internal/clock"
	"mealplanr/internal/importer"
	"mealplanr/internal/logger"
	"mealplanr/internal/metrics"
	"mealplanr/internal/planner"
	"mealplanr/internal/shopping"
	"mealplanr/internal/user"
)

// secretHeader carries the secret_token registered with setWebhook on every delivery.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

const helpText = `🧑‍🍳 *Meal Planner*

/generate - plan this week
/plan - show this week's plan
/list - show the shopping list
/swap <day> <meal> - replace one meal
/remove <day> <meal> - empty one meal
/check <n> - tick or untick item n
/metrics - usage and health report

Send a recipe link to add it to the catalog.`

// Sender delivers messages to Telegram. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Planner is the subset of the plan service the bot drives.
type Planner interface {
	GeneratePlan(ctx context.Context, u *user.User) (*planner.WeekPlan, error)
	GetPlan(ctx context.Context, u *user.User) (*planner.WeekPlan, error)
	SwapMeal(ctx context.Context, u *user.User, day, slot string) (*planner.WeekPlan, error)
	RemoveMeal(ctx context.Context, u *user.User, day, slot string) (*planner.WeekPlan, error)
	SetChecked(ctx context.Context, u *user.User, itemID string, checked bool) (shopping.Item, error)
}

// UserLookup resolves the account the bot acts as.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// MealImporter adds recipe pages to the catalog.
type MealImporter interface {
	ImportURL(ctx context.Context, url string, tags []string) (*catalog.Meal, error)
}

// UsageReporter supplies LLM usage totals for /metrics.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, since time.Time) ([]metrics.DailyUsage, error)
}

// Options configures who may talk to the bot and which account it acts as.
// WebhookSecret must match the secret_token the webhook was registered with.
type Options struct {
	AllowUserID   int64
	UserEmail     string
	DataPath      string
	WebhookSecret string
}

// Bot answers Telegram updates with the plan service of a single linked account.
type Bot struct {
	sender   Sender
	plans    Planner
	users    UserLookup
	importer MealImporter
	usage    UsageReporter
	opts     Options
	clock    clock.Clock
	log      *logger.Logger
}

// Connect authorizes against the Bot API and registers webhookURL with secret when given.
func Connect(token, webhookURL, secret string, log *logger.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info("telegram authorized", "account", api.Self.UserName)

	if webhookURL == "" {
		return api, nil
	}
	// WebhookConfig in this client version has no secret_token field.
	resp, err := api.MakeRequest("setWebhook", tgbotapi.Params{
		"url":          webhookURL,
		"secret_token": secret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Info("telegram webhook set", "description", resp.Description)
	return api, nil
}

// NewBot creates a Bot. importer and usage may be nil, which disables links and /metrics.
func NewBot(sender Sender, plans Planner, users UserLookup, importer MealImporter, usage UsageReporter, opts Options, clk clock.Clock, log *logger.Logger) *Bot {
	return &Bot{
		sender:   sender,
		plans:    plans,
		users:    users,
		importer: importer,
		usage:    usage,
		opts:     opts,
		clock:    clk,
		log:      log.With("service", "TelegramBot"),
	}
}

// ServeHTTP accepts webhook deliveries carrying the registered secret token.
// Authenticated deliveries always get 200 so Telegram does not redeliver.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.validSecret(r.Header.Get(secretHeader)) {
		b.log.Warn("rejected telegram webhook with bad secret token", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.log.Warn("failed to parse telegram update", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	b.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

func (b *Bot) validSecret(got string) bool {
	if b.opts.WebhookSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(b.opts.WebhookSecret)) == 1
}

// HandleUpdate processes one update from an allowed user.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if msg.From.ID != b.opts.AllowUserID {
		b.log.Warn("unauthorized telegram access attempt", "telegram_user_id", msg.From.ID, "username", msg.From.UserName)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleImport(ctx, msg.Chat.ID, text)
		return
	}

	if !msg.IsCommand() {
		b.reply(msg.Chat.ID, helpText)
		return
	}
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "generate":
		b.withUser(ctx, msg.Chat.ID, func(u *user.User) {
			plan, err := b.plans.GeneratePlan(ctx, u)
			b.sendPlan(msg.Chat.ID, plan, err, true)
		})
	case "plan":
		b.withUser(ctx, msg.Chat.ID, func(u *user.User) {
			plan, err := b.plans.GetPlan(ctx, u)
			b.sendPlan(msg.Chat.ID, plan, err, true)
		})
	case "list":
		b.withUser(ctx, msg.Chat.ID, func(u *user.User) {
			plan, err := b.plans.GetPlan(ctx, u)
			if err != nil {
				b.replyError(msg.Chat.ID, err)
				return
			}
			b.reply(msg.Chat.ID, formatShoppingList(plan.ShoppingList))
		})
	case "swap", "remove":
		if len(args) != 2 {
			b.reply(msg.Chat.ID, fmt.Sprintf("Usage: /%s <day> <breakfast|lunch|dinner>", msg.Command()))
			return
		}
		b.withUser(ctx, msg.Chat.ID, func(u *user.User) {
			var plan *planner.WeekPlan
			var err error
			if msg.Command() == "swap" {
				plan, err = b.plans.SwapMeal(ctx, u, args[0], args[1])
			} else {
				plan, err = b.plans.RemoveMeal(ctx, u, args[0], args[1])
			}
			b.sendPlan(msg.Chat.ID, plan, err, false)
		})
	case "check":
		n, err := strconv.Atoi(strings.Join(args, ""))
		if err != nil || n < 1 {
			b.reply(msg.Chat.ID, "Usage: /check <item number>")
			return
		}
		b.withUser(ctx, msg.Chat.ID, func(u *user.User) {
			b.toggleItem(ctx, msg.Chat.ID, u, n)
		})
	case "metrics":
		b.handleMetrics(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

func (b *Bot) withUser(ctx context.Context, chatID int64, fn func(u *user.User)) {
	u, err := b.users.GetByEmail(ctx, b.opts.UserEmail)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			b.reply(chatID, "⛔ No account is linked to this bot.")
			return
		}
		b.log.Error("failed to load linked account", "error", err)
		b.reply(chatID, "❌ Something went wrong.")
		return
	}
	fn(u)
}

func (b *Bot) toggleItem(ctx context.Context, chatID int64, u *user.User, n int) {
	plan, err := b.plans.GetPlan(ctx, u)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if n > len(plan.ShoppingList) {
		b.reply(chatID, fmt.Sprintf("There is no item %d.", n))
		return
	}
	item := plan.ShoppingList[n-1]
	updated, err := b.plans.SetChecked(ctx, u, item.ID, !item.Checked)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	plan.ShoppingList[n-1] = updated
	b.reply(chatID, formatShoppingList(plan.ShoppingList))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, url string) {
	if b.importer == nil {
		b.reply(chatID, "Recipe import is not enabled.")
		return
	}
	meal, err := b.importer.ImportURL(ctx, url, nil)
	if errors.Is(err, importer.ErrAlreadyImported) {
		b.reply(chatID, "ℹ️ This recipe is already in the catalog.")
		return
	}
	if err != nil {
		b.log.Warn("recipe import failed", "url", url, "error", err)
		b.reply(chatID, fmt.Sprintf("❌ *Error importing recipe:*\n```\n%s\n```", strings.ReplaceAll(err.Error(), "`", "'")))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ *Recipe Saved!*\n\n*%s* with %d ingredients", escape(meal.Name), len(meal.Ingredients)))
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	if b.usage == nil {
		b.reply(chatID, "Metrics are not enabled.")
		return
	}
	usage, err := b.usage.GetDailyUsage(ctx, b.clock.Now().AddDate(0, 0, -7))
	if err != nil {
		b.log.Error("failed to fetch usage", "error", err)
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetrics(usage, metrics.GetSysHealth(b.opts.DataPath)))
}

func (b *Bot) sendPlan(chatID int64, plan *planner.WeekPlan, err error, withList bool) {
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	planText, listText := formatPlanMarkdownParts(plan)
	b.reply(chatID, planText)
	if withList {
		b.reply(chatID, listText)
	}
}

func (b *Bot) replyError(chatID int64, err error) {
	switch {
	case errors.Is(err, planner.ErrPlanNotFound):
		b.reply(chatID, "No plan for this week yet. Send /generate.")
	case errors.Is(err, planner.ErrInsufficientCatalog):
		b.reply(chatID, "😕 Not enough meals match your dietary restrictions.")
	case errors.Is(err, planner.ErrNoAlternative):
		b.reply(chatID, "😕 No other meal fits that slot.")
	case errors.Is(err, planner.ErrInvalidSlot):
		b.reply(chatID, "Unknown day or meal. Try e.g. /swap monday dinner")
	case errors.Is(err, planner.ErrItemNotFound):
		b.reply(chatID, "That item is gone. Send /list to refresh.")
	default:
		b.log.Error("telegram command failed", "error", err)
		b.reply(chatID, "❌ Something went wrong.")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Warn("failed to send telegram message", "chat_id", chatID, "error", err)
	}
}

var slotIcons = map[planner.Slot]string{
	planner.SlotBreakfast: "🍳",
	planner.SlotLunch:     "🥗",
	planner.SlotDinner:    "🍲",
}

func formatPlanMarkdownParts(plan *planner.WeekPlan) (string, string) {
	var pb strings.Builder
	fmt.Fprintf(&pb, "📅 *Meal Plan %s*\n", plan.Week)

	for i := range plan.Days {
		day := &plan.Days[i]
		fmt.Fprintf(&pb, "\n*%s*\n", day.Day)
		for _, s := range planner.Slots {
			name := "_empty_"
			if m := day.Meal(s); m != nil {
				name = escape(m.Name)
			}
			fmt.Fprintf(&pb, "%s %s: %s\n", slotIcons[s], strings.ToUpper(string(s[:1]))+string(s[1:]), name)
		}
	}

	return pb.String(), formatShoppingList(plan.ShoppingList)
}

func formatShoppingList(list shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(list) == 0 {
		sb.WriteString("_Nothing to buy_\n")
	}
	for i, it := range list {
		box := "⬜"
		if it.Checked {
			box = "✅"
		}
		fmt.Fprintf(&sb, "%d. %s %s: %s\n", i+1, box, escape(it.Item), escape(it.Quantity))
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d calls)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
