package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "healtrack/internal/application"
	"healtrack/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я помогаю следить за заживлением послеоперационной раны.

📸 Отправьте фото раны, и я оценю покраснение, отёк и закрытие шва.

📋 Команды:
/check — начать проверку
/patient <метка> — задать метку пациента
/forget — удалить метку и состояние
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото раны (можно файлом)
2️⃣ Бот проанализирует изображение
3️⃣ Вы получите оценки и рекомендации

💡 Рекомендации по съёмке:
• Ровный дневной свет без вспышки
• Однотонный фон вокруг раны
• Рана в центре кадра, фото чёткое

Подпись к фото сохраняется как заметка к анализу.

⚠️ Оценка вспомогательная и не заменяет осмотр врача.`

	msgAwaitingPhoto   = "📸 Отправьте фото раны для проверки."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото раны."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую изображение..."
	msgBusy            = "⏳ Предыдущее фото ещё обрабатывается, подождите."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgPatientUsage    = "Использование: /patient <метка>. Пустая метка сбрасывает текущую."
	msgPatientCleared  = "🏷 Метка пациента сброшена."
	msgForgotten       = "🗑 Ваши данные удалены."
	msgTooLarge        = "⚠️ Файл слишком большой."
)

// Analyzer конвейер анализа, который вызывает бот.
type Analyzer interface {
	AnalyzeContext(ctx context.Context, req app.AnalysisRequest) (*entity.AnalysisReport, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *app.UserService
	analyzer Analyzer
	client   *http.Client
	maxBytes int
	timeout  time.Duration
	inflight sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, analyzer Analyzer, maxBytes int, timeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:      api,
		users:    users,
		analyzer: analyzer,
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxBytes,
		timeout:  timeout,
	}, nil
}

// Run обрабатывает апдейты до отмены контекста.
// Фото анализируются в отдельных горутинах, Run дожидается их завершения.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Фото или изображение, отправленное файлом
	if fileID, ok := imageFileID(msg); ok {
		user, err = b.users.BeginProcessing(ctx, user.ID, msg.Chat.ID)
		if errors.Is(err, app.ErrBusy) {
			b.sendMessage(msg.Chat.ID, msgBusy)
			return
		}
		if err != nil {
			log.Printf("Error updating user state: %v", err)
			return
		}

		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.handlePhoto(ctx, msg, user, fileID)
		}()
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	var err error
	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		_, err = b.users.BeginCheck(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		_, err = b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	case "patient":
		label := strings.TrimSpace(msg.CommandArguments())
		_, err = b.users.SetPatient(ctx, user.ID, msg.Chat.ID, label)
		if label == "" {
			b.sendMessage(msg.Chat.ID, msgPatientCleared+"\n"+msgPatientUsage)
		} else {
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("🏷 Метка пациента: %s", label))
		}

	case "forget":
		err = b.users.Forget(ctx, user.ID)
		b.sendMessage(msg.Chat.ID, msgForgotten)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}

	if err != nil {
		log.Printf("Error updating user state: %v", err)
	}
}

// handlePhoto скачивает изображение и запускает анализ.
// Пользователь уже переведён в StateProcessing, по завершении он возвращается в меню.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string) {
	defer func() {
		// ctx может быть уже отменён, состояние сбрасываем в любом случае
		if _, err := b.users.Cancel(context.WithoutCancel(ctx), user.ID, msg.Chat.ID); err != nil {
			log.Printf("Error updating user state: %v", err)
		}
	}()

	b.sendMessage(msg.Chat.ID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		if errors.Is(err, errTooLarge) {
			b.sendMessage(msg.Chat.ID, msgTooLarge)
			return
		}
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	actx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	report, err := b.analyzer.AnalyzeContext(actx, app.AnalysisRequest{
		Image:     imageData,
		PatientID: user.PatientID,
		Notes:     strings.TrimSpace(msg.Caption),
	})
	if err != nil {
		b.sendMessage(msg.Chat.ID, FormatError(err))
		return
	}

	b.sendMessage(msg.Chat.ID, FormatReport(report))
}

// imageFileID выбирает фото максимального разрешения или документ-изображение.
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

var errTooLarge = errors.New("file exceeds size limit")

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if b.maxBytes > 0 && file.FileSize > b.maxBytes {
		return nil, errTooLarge
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	limit := int64(b.maxBytes)
	if limit <= 0 {
		limit = 1 << 30
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
