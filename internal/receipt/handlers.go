package receipt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aurahealth/aura-backend/internal/assistant"
	"github.com/aurahealth/aura-backend/internal/mail"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, body any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeJSONError encodes a JSON error response
func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// handleHealth reports service status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.service.Status()
	status["live_clients"] = s.hub.ClientCount()
	writeJSON(w, http.StatusOK, status)
}

// handleAnalyzeText runs line extraction and health analysis over raw receipt
// text, for clients that already have OCR output and only want the analysis.
func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	items, analysis := s.service.AnalyzeText(req.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"analysis": analysis,
	})
}

// handleListRecords returns all analyzed receipts
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListRecords()
	if err != nil {
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleHistory returns all analyzed receipts wrapped for the dashboard view
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListRecords()
	if err != nil {
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"analyses": records,
		"count":    len(records),
	})
}

// uploadPayload extracts the receipt image from the request. It accepts a
// multipart "file" part or a base64 "image_data" form field, which some
// browser camera flows send as a data URL.
func uploadPayload(r *http.Request) (filename string, data []byte, contentType string, err error) {
	f, header, err := r.FormFile("file")
	if err == nil {
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			return "", nil, "", err
		}
		return header.Filename, data, header.Header.Get("Content-Type"), nil
	}

	encoded := r.FormValue("image_data")
	if encoded == "" {
		return "", nil, "", errors.New("no file provided")
	}
	// Strip a data URL prefix like "data:image/png;base64,"
	if idx := strings.Index(encoded, ","); idx != -1 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, "", errors.New("invalid base64 image data")
	}
	return "capture.png", data, "image/png", nil
}

// handleUploadReceipt handles receipt upload and analysis
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 50MB to handle high-resolution phone photos)
	maxFormSize := int64(50 << 20) // 50MB
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeJSONError(w, http.StatusBadRequest, errorMsg)
		return
	}

	filename, data, contentType, err := uploadPayload(r)
	if err != nil {
		slog.Error("Error reading upload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if int64(len(data)) > maxFormSize {
		writeJSONError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB. Please compress or resize your image.")
		return
	}

	// Determine content type from extension when the part omits it
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	record, err := s.service.ProcessReceipt(filename, data, contentType)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			writeJSONError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		slog.Error("Error processing receipt", "filename", filename, "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Let dashboards on the live channel pick up the new analysis.
	s.hub.Broadcast(wsMessage{Type: "analysis_complete", Record: record})

	writeJSON(w, http.StatusCreated, record)
}

// handleGetRecord returns a single analyzed receipt
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Record ID required", http.StatusBadRequest)
		return
	}
	record, err := s.service.GetRecord(id)
	if err != nil {
		corsError(w, "Record not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleGetRecordFile returns the original uploaded file for a record
func (s *Server) handleGetRecordFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Record ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetRecordFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteRecord deletes an analyzed receipt
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Record ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteRecord(id); err != nil {
		corsError(w, "Error deleting record", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleChat answers a conversation with the health assistant
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []assistant.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := s.service.Chat(r.Context(), req.Messages)
	if err != nil {
		slog.Error("Error handling chat", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// handleSubscribe signs an email up for the newsletter
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		UserName string `json:"userName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := s.service.Subscribe(r.Context(), req.Email, req.UserName)
	if err != nil {
		if errors.Is(err, ErrAlreadySubscribed) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		slog.Error("Error subscribing", "email", req.Email, "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":        "Successfully subscribed to newsletter!",
		"subscriptionId": sub.ID,
	})
}

// handleListSubscribers returns all newsletter subscribers
func (s *Server) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := s.service.ListSubscriptions()
	if err != nil {
		slog.Error("Error listing subscribers", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscribers": subs,
		"count":       len(subs),
	})
}

// handleMonthlyReport sends a monthly health report email
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string             `json:"email"`
		Report mail.MonthlyReport `json:"report"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.service.SendMonthlyReport(r.Context(), req.Email, req.Report); err != nil {
		slog.Error("Error sending monthly report", "email", req.Email, "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Monthly report sent"})
}
