package api

import (
	"errors"
	"regexp"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/server/classify"
	"github.com/dmitrijs2005/cityfix/internal/server/images"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const maxBodyBytes = 16 << 20

// issueImageKey matches the keys handed out by POST /images/presign.
var issueImageKey = regexp.MustCompile(`^` + images.PrefixIssues + `/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.[a-z]+$`)

type validatable interface {
	Validate() error
}

func validCategory(value interface{}) error {
	s, _ := value.(string)
	if _, err := models.ParseCategory(s); err != nil {
		return errors.New("must be a known category")
	}
	return nil
}

func validStatus(value interface{}) error {
	s, _ := value.(string)
	if _, err := models.ParseStatus(s); err != nil {
		return errors.New("must be Pending, Processing or Completed")
	}
	return nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.Role, validation.In(string(models.RoleCitizen), string(models.RoleAuthority))),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

type createIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageBase64 *string  `json:"image_base64"`
	// ImageKey references an object already uploaded via a presigned URL.
	ImageKey *string `json:"image_key"`
}

func (r createIssueRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(3, 180)),
		validation.Field(&r.Description, validation.Required, validation.Length(10, 2000)),
		validation.Field(&r.Category, validation.Required, validation.By(validCategory)),
		validation.Field(&r.Latitude, validation.NotNil, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.NotNil, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&r.ImageKey, validation.Length(1, 512),
			validation.Match(issueImageKey).Error("must be a key issued by /images/presign")),
	)
}

type statusUpdateRequest struct {
	Status                string  `json:"status"`
	Comment               *string `json:"comment"`
	ResolutionImageBase64 *string `json:"resolution_image_base64"`
}

func (r statusUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.By(validStatus)),
		validation.Field(&r.Comment, validation.Length(0, 500)),
	)
}

type presignRequest struct {
	ContentType string `json:"content_type"`
}

func (r presignRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ContentType, validation.Required),
	)
}

type predictRequest struct {
	Complaint string `json:"complaint"`
}

func (r predictRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Complaint, validation.Required, validation.Length(3, 5000)),
	)
}

// --- responses ---

type userResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type issueResponse struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Category            models.Category `json:"category"`
	Status              models.Status   `json:"status"`
	Latitude            float64         `json:"latitude"`
	Longitude           float64         `json:"longitude"`
	ImagePath           *string         `json:"image_path"`
	ResolutionImagePath *string         `json:"resolution_image_path"`
	ResolutionComment   *string         `json:"resolution_comment"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	ReporterName        string          `json:"reporter_name"`
	ReporterEmail       string          `json:"reporter_email"`
}

func newIssueResponse(i *models.Issue) issueResponse {
	return issueResponse{
		ID:                  i.ID,
		UserID:              i.OwnerID,
		Title:               i.Title,
		Description:         i.Description,
		Category:            i.Category,
		Status:              i.Status,
		Latitude:            i.Location.Latitude,
		Longitude:           i.Location.Longitude,
		ImagePath:           i.ImageRef,
		ResolutionImagePath: i.ResolutionImageRef,
		ResolutionComment:   i.ResolutionComment,
		CreatedAt:           i.CreatedAt,
		UpdatedAt:           i.UpdatedAt,
		ReporterName:        i.ReporterName,
		ReporterEmail:       i.ReporterEmail,
	}
}

type issuesListResponse struct {
	Items    []issueResponse `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type statusUpdateResponse struct {
	ID        string         `json:"id"`
	OldStatus *models.Status `json:"old_status"`
	NewStatus models.Status  `json:"new_status"`
	Comment   *string        `json:"comment"`
	CreatedAt time.Time      `json:"created_at"`
}

func newStatusUpdateResponse(u *models.StatusUpdate) statusUpdateResponse {
	return statusUpdateResponse{
		ID:        u.ID,
		OldStatus: u.OldStatus,
		NewStatus: u.NewStatus,
		Comment:   u.Comment,
		CreatedAt: u.CreatedAt,
	}
}

type analyticsResponse struct {
	TotalIssues int64 `json:"total_issues"`
	Pending     int64 `json:"pending"`
	Processing  int64 `json:"processing"`
	Completed   int64 `json:"completed"`
}

type imageUploadResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type predictResponse struct {
	Category models.Category  `json:"category"`
	Urgency  classify.Urgency `json:"urgency"`
	classify.Advice
}

type messageResponse struct {
	Message string `json:"message"`
}
