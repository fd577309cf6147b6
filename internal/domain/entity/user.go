package entity

// UserState состояние собеседника в диалоге с ботом
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото раны
	StateProcessing    UserState = "processing"     // Идёт анализ
)

// User собеседник бота. Фотографии и отчёты здесь не хранятся.
type User struct {
	ID        int64     // Telegram User ID
	ChatID    int64     // Telegram Chat ID
	State     UserState // Текущее состояние диалога
	PatientID string    // Метка пациента, которую пользователь задал через /patient
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetPatient запоминает метку пациента для следующих анализов
func (u *User) SetPatient(patientID string) {
	u.PatientID = patientID
}
