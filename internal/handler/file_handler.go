package handler

import (
	"net/http"

	"campushub/internal/app/chat"
	"campushub/internal/pkg/auth/jwt"
	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/logx"
	"campushub/internal/pkg/randx"
	"campushub/internal/pkg/req"
	"campushub/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating upload URL.
type PresignUploadInput struct {
	RoomID   string `json:"roomId" validate:"required"`
	FileName string `json:"fileName" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
	FileSize int64  `json:"fileSize" validate:"required"`
}

// HandlePresignUploadURL creates an HTTP HandlerFunc to generate a time-limited,
// pre-signed URL for an attachment upload, scoped to a room the caller takes part in.
func HandlePresignUploadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if deps.StorageService == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentsDisabled))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindAndValidate(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !chat.RoomIncludes(input.RoomID, payload.ID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}

		if err := chat.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := chat.ValidateFileType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		key := randx.AttachmentKey(input.RoomID, input.FileName)

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			key,
			input.MimeType,
			input.FileSize,
			chat.PresignedURLDuration,
		)
		if err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Str("room_id", input.RoomID).Msg("Presign upload failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, http.StatusOK, resp.Fields{
			"presignedUrl":  url,
			"attachmentKey": key,
			"fileName":      input.FileName,
		})
	}
}

// HandlePresignDownloadURL creates an HTTP HandlerFunc that redirects to a time-limited,
// pre-signed download URL. Only the two parties of the attachment's room may follow it.
func HandlePresignDownloadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if deps.StorageService == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentsDisabled))
			return
		}

		key := r.URL.Query().Get("k")
		roomID, ok := chat.AttachmentRoom(key)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := chat.ValidateAttachmentKey(roomID, key); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if !chat.RoomIncludes(roomID, payload.ID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), key, chat.PresignedURLDuration)
		if err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Str("room_id", roomID).Msg("Presign download failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
