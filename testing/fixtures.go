package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/photo-moderation/models"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain-text password of every fixture user
const TestPassword = "Pa$$w0rd"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a user with a random suffix appended to prefix
func (tf *TestFixtures) CreateTestUser(prefix string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     fmt.Sprintf("%s%06d", prefix, rand.Intn(1000000)),
		KnownAs:      prefix,
		Gender:       "female",
		City:         "Tehran",
		Country:      "Iran",
		PasswordHash: string(hashed),
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestPhoto creates a photo owned by userID
func (tf *TestFixtures) CreateTestPhoto(userID uint, approved, main bool) (*models.Photo, error) {
	publicID := fmt.Sprintf("photos/%d/%06d.jpg", userID, rand.Intn(1000000))
	photo := &models.Photo{
		URL:        "https://media.example.com/" + publicID,
		PublicID:   &publicID,
		IsMain:     main,
		IsApproved: approved,
		UserID:     userID,
	}
	if err := tf.DB.DB.Create(photo).Error; err != nil {
		return nil, fmt.Errorf("failed to create test photo: %w", err)
	}
	return photo, nil
}

// CreateTestTag creates a tag with the given name
func (tf *TestFixtures) CreateTestTag(name string) (*models.Tag, error) {
	tag := &models.Tag{Name: name}
	if err := tf.DB.DB.Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tag: %w", err)
	}
	return tag, nil
}

// TagPhoto assigns an existing tag to a photo
func (tf *TestFixtures) TagPhoto(photoID, tagID uint) error {
	return tf.DB.DB.Create(&models.PhotoTag{PhotoID: photoID, TagID: tagID}).Error
}

// AddRole adds the user to one of the seeded roles
func (tf *TestFixtures) AddRole(userID uint, roleName string) error {
	var role models.Role
	if err := tf.DB.DB.Where("name = ?", roleName).First(&role).Error; err != nil {
		return fmt.Errorf("failed to find role %s: %w", roleName, err)
	}
	return tf.DB.DB.Create(&models.UserRole{UserID: userID, RoleID: role.ID}).Error
}

// CreateTestMessage stores a message from sender to recipient
func (tf *TestFixtures) CreateTestMessage(sender, recipient *models.User, content string) (*models.Message, error) {
	msg := &models.Message{
		SenderID:          sender.ID,
		SenderUsername:    sender.Username,
		RecipientID:       recipient.ID,
		RecipientUsername: recipient.Username,
		Content:           content,
	}
	if err := tf.DB.DB.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create test message: %w", err)
	}
	return msg, nil
}
