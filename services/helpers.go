package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/storage"
)

// --- Хелперы для заполнения публичных URL ---

func populateGymPhotoURL(gym *models.Gym, uploader storage.FileUploader) {
	if gym != nil && gym.PhotoKey != nil && *gym.PhotoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*gym.PhotoKey); url != "" {
			gym.PhotoURL = &url
		}
	}
}

func populateProfileAvatarURL(profile *models.Profile, uploader storage.FileUploader) {
	if profile != nil && profile.AvatarKey != nil && *profile.AvatarKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*profile.AvatarKey); url != "" {
			profile.AvatarURL = &url
		}
	}
}

// GetExtensionFromContentType возвращает расширение файла для поддерживаемых типов изображений.
func GetExtensionFromContentType(contentType string) (string, error) {
	// "image/png; charset=..." -> "image/png"
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedImageType, contentType)
	}
}

// objectKey строит ключ вида avatars/42/<uuid>.png.
func objectKey(prefix string, ownerID int, ext string) string {
	return fmt.Sprintf("%s/%d/%s%s", prefix, ownerID, uuid.NewString(), ext)
}
