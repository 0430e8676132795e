package api

type passcodeRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Username  string `json:"username" validate:"max=150"`
	Password  string `json:"password" validate:"required"`
}

type resendPasscodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyPasscodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type loginRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type googleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type enrollRequest struct {
	CourseLevelID uint `json:"course_level_id" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type progressRequest struct {
	Status   *string        `json:"status"`
	Progress flexibleString `json:"progress_percentage"`
}

type scheduleRequest struct {
	ScheduleID uint `json:"class_schedule_id" validate:"required"`
}

type languageRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Code        *string `json:"code" validate:"omitempty,max=10"`
	Flag        *string `json:"flag" validate:"omitempty,max=10"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

type levelRequest struct {
	Level         *string `json:"level"`
	Price         *int64  `json:"price"`
	DurationWeeks *int    `json:"duration_weeks"`
	Description   *string `json:"description"`
	IsActive      *bool   `json:"is_active"`
}

type userRequest struct {
	Email     string  `json:"email" validate:"omitempty,email"`
	Username  string  `json:"username" validate:"max=150"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	IsStaff   *bool   `json:"is_staff"`
	IsStudent *bool   `json:"is_student"`
	IsActive  *bool   `json:"is_active"`
}
