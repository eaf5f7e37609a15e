package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/worklane/worklane-backend/internal/config"
	"github.com/worklane/worklane-backend/internal/services"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadAvatar stores a profile picture and sets it on the caller's profile.
func UploadAvatar(w http.ResponseWriter, r *http.Request) {
	uploadProfileAsset(w, r, "avatar", services.FolderAvatars)
}

// UploadCV stores a CV document and sets it on the caller's profile.
func UploadCV(w http.ResponseWriter, r *http.Request) {
	uploadProfileAsset(w, r, "cv", services.FolderCVs)
}

func uploadProfileAsset(w http.ResponseWriter, r *http.Request, field, folder string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if cloudinaryService == nil {
		http.Error(w, "File upload service not available", http.StatusInternalServerError)
		return
	}

	// Max 10MB
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile(field)
	if err != nil {
		http.Error(w, "No file provided: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		log.Printf("ERROR: %s upload failed: %v", field, err)
		http.Error(w, "Failed to upload file", http.StatusInternalServerError)
		return
	}

	avatarURL, cvURL := "", ""
	if field == "avatar" {
		avatarURL = url
	} else {
		cvURL = url
	}
	if err := services.SetProfileAssets(userID, avatarURL, cvURL); err != nil {
		http.Error(w, "Failed to save file URL", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ %s uploaded for user %s", field, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}
