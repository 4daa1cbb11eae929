package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"campushub/internal/app/chat"
	"campushub/internal/pkg/auth/jwt"
	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/req"
	"campushub/internal/pkg/resp"
)

// SendMessageInput defines the JSON input structure of POST /api/chat/send.
type SendMessageInput struct {
	ReceiverID    string `json:"receiverId" validate:"required"`
	Body          string `json:"body" validate:"required"`
	ProductRef    string `json:"productRef"`
	AttachmentKey string `json:"attachmentKey"`
}

// HandleGetConversations lists the conversation summaries of the signed-in user.
func HandleGetConversations(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conversations, err := deps.Chat.GetConversations(r.Context(), payload.ID)
		if err != nil {
			resp.RespondError(w, r, errs.From(err))
			return
		}

		resp.RespondSuccess(w, r, http.StatusOK, resp.Fields{"conversations": conversations})
	}
}

// HandleGetHistory returns the messages shared with {otherUserId} and marks the
// ones addressed to the signed-in user as read.
func HandleGetHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		otherUserID := chi.URLParam(r, "otherUserId")

		messages, err := deps.Chat.GetHistory(r.Context(), payload.ID, otherUserID)
		if err != nil {
			resp.RespondError(w, r, errs.From(err))
			return
		}

		resp.RespondSuccess(w, r, http.StatusOK, resp.Fields{"messages": messages})
	}
}

// HandleSendMessage stores a message from the signed-in user without real-time delivery.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input SendMessageInput
		if customErr := req.BindAndValidate(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		message, err := deps.Chat.SendMessage(r.Context(), chat.Draft{
			SenderID:      payload.ID,
			ReceiverID:    input.ReceiverID,
			Body:          input.Body,
			ProductRef:    input.ProductRef,
			AttachmentKey: input.AttachmentKey,
		})
		if err != nil {
			resp.RespondError(w, r, errs.From(err))
			return
		}

		resp.RespondSuccess(w, r, http.StatusCreated, resp.Fields{"message": message})
	}
}
