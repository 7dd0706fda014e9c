package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
)

// Типы событий, которые уходят пользователям через websocket.
const (
	EventApplicationSubmitted = "application.submitted"
	EventApplicationStatus    = "application.status"
	EventMessageReceived      = "message.received"
	EventGameReminder         = "game.reminder"
)

// Publisher доставляет событие всем соединениям пользователя. Реализуется realtime.Hub.
type Publisher interface {
	Publish(userID int, eventType string, payload interface{})
}

// Notifier рассылает уведомления после успешных операций движка.
// Почта отправляется в фоне; websocket-события публикуются сразу.
type Notifier struct {
	users     repositories.UserRepository
	games     repositories.GameRepository
	mailer    Mailer
	publisher Publisher
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewNotifier - mailer и publisher могут быть nil, тогда соответствующий канал отключён.
func NewNotifier(
	users repositories.UserRepository,
	games repositories.GameRepository,
	mailer Mailer,
	publisher Publisher,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		users:     users,
		games:     games,
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
	}
}

type gameMailData struct {
	Nickname  string
	Applicant string
	GameTitle string
	GameDate  string
	StartTime string
	Region    string
	Status    models.ParticipantStatus
}

func newGameMailData(recipient *models.User, game *models.Game) gameMailData {
	return gameMailData{
		Nickname:  recipient.Nickname,
		GameTitle: game.Title,
		GameDate:  game.GameDate.String(),
		StartTime: game.StartTime.String(),
		Region:    game.Region,
	}
}

// ApplicationSubmitted уведомляет владельца игры о новой заявке.
func (n *Notifier) ApplicationSubmitted(ctx context.Context, p *models.Participant) {
	game, err := n.games.GetByID(ctx, p.GameID)
	if err != nil {
		n.logger.WarnContext(ctx, "notifier: failed to load game", slog.Int("game_id", p.GameID), slog.Any("error", err))
		return
	}
	users, err := n.users.ListByIDs(ctx, []int{game.OwnerID, p.UserID})
	if err != nil {
		n.logger.WarnContext(ctx, "notifier: failed to load users", slog.Int("game_id", p.GameID), slog.Any("error", err))
		return
	}
	owner, applicant := users[game.OwnerID], users[p.UserID]
	if owner == nil || applicant == nil {
		return
	}

	n.publish(owner.ID, EventApplicationSubmitted, map[string]interface{}{
		"game_id":     game.ID,
		"participant": p,
		"applicant":   applicant.Public(),
	})

	data := newGameMailData(owner, game)
	data.Applicant = applicant.Nickname
	n.sendMail(owner.Email, "Новая заявка на игру "+game.Title, "application_received.html", data)
}

// ApplicationStatusChanged уведомляет автора заявки о решении владельца.
func (n *Notifier) ApplicationStatusChanged(ctx context.Context, p *models.Participant) {
	game, err := n.games.GetByID(ctx, p.GameID)
	if err != nil {
		n.logger.WarnContext(ctx, "notifier: failed to load game", slog.Int("game_id", p.GameID), slog.Any("error", err))
		return
	}
	applicant, err := n.users.GetByID(ctx, p.UserID)
	if err != nil {
		n.logger.WarnContext(ctx, "notifier: failed to load applicant", slog.Int("user_id", p.UserID), slog.Any("error", err))
		return
	}

	n.publish(applicant.ID, EventApplicationStatus, map[string]interface{}{
		"game_id":        game.ID,
		"participant_id": p.ID,
		"status":         p.Status,
	})

	data := newGameMailData(applicant, game)
	data.Status = p.Status
	n.sendMail(applicant.Email, "Заявка на игру "+game.Title, "application_status.html", data)
}

func (n *Notifier) MessageSent(_ context.Context, m *models.Message) {
	n.publish(m.RecipientID, EventMessageReceived, m)
}

// GameReminder напоминает одобренным участникам о скорой игре и возвращает число адресатов.
func (n *Notifier) GameReminder(ctx context.Context, game *models.Game, participants []models.Participant) int {
	ids := make([]int, 0, len(participants))
	for _, p := range participants {
		if p.Status == models.ParticipantApproved {
			ids = append(ids, p.UserID)
		}
	}
	if len(ids) == 0 {
		return 0
	}

	users, err := n.users.ListByIDs(ctx, ids)
	if err != nil {
		n.logger.WarnContext(ctx, "notifier: failed to load reminder recipients", slog.Int("game_id", game.ID), slog.Any("error", err))
		return 0
	}

	sent := 0
	for _, id := range ids {
		u, ok := users[id]
		if !ok {
			continue
		}
		n.publish(u.ID, EventGameReminder, map[string]interface{}{
			"game_id":    game.ID,
			"title":      game.Title,
			"game_date":  game.GameDate,
			"start_time": game.StartTime,
		})
		n.sendMail(u.Email, "Скоро игра: "+game.Title, "game_reminder.html", newGameMailData(u, game))
		sent++
	}
	return sent
}

// Wait блокируется до завершения всех фоновых отправок писем.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) publish(userID int, eventType string, payload interface{}) {
	if n.publisher == nil {
		return
	}
	n.publisher.Publish(userID, eventType, payload)
}

func (n *Notifier) sendMail(to, subject, templateName string, data interface{}) {
	if n.mailer == nil || to == "" {
		return
	}
	body, err := n.mailer.RenderEmail(templateName, data)
	if err != nil {
		n.logger.Error("notifier: failed to render email", slog.String("template", templateName), slog.Any("error", err))
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.mailer.SendEmail([]string{to}, subject, body); err != nil {
			n.logger.Warn("notifier: failed to send email", slog.String("template", templateName), slog.Any("error", err))
		}
	}()
}
