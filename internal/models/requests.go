package models

// RegisterRequest данные регистрации нового читателя. Поля проверяются
// валидатором перед созданием учётной записи.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=4"`
	Email    string `json:"email" validate:"required,email"`
}

// AddBookRequest данные для добавления книги в каталог.
type AddBookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"` // 0 означает «по умолчанию», будет заменено на 1
}

// AddCDRequest данные для добавления CD в каталог.
type AddCDRequest struct {
	Title    string `json:"title" validate:"required"`
	Artist   string `json:"artist" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// PayFineRequest данные платежа по задолженности.
type PayFineRequest struct {
	Username string `json:"username" validate:"required"`
	Amount   int    `json:"amount" validate:"required,gt=0"`
}
