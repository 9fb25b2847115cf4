package drive

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"sheetbridge/apierr"
	"sheetbridge/gateway"
)

// MaxUploadBytes caps the decoded size of uploaded content.
const MaxUploadBytes = 10 * 1024 * 1024

// Handler implements the gateway.ServiceHandler interface for Drive.
type Handler struct{}

// NewHandler creates a new Drive handler.
func NewHandler() *Handler {
	return &Handler{}
}

// GetTools returns the available Drive tools.
func (h *Handler) GetTools() []gateway.Tool {
	fileID := gateway.Property{
		Type:        "string",
		Description: "Drive file ID",
	}

	return []gateway.Tool{
		{
			Name:        "drive_files_list",
			Description: "List files and folders, optionally filtered by a Drive query or parent folder",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"query": {
						Type:        "string",
						Description: "Drive search query (e.g., \"name contains 'report'\")",
					},
					"folder_id": {
						Type:        "string",
						Description: "Restrict listing to this folder",
					},
					"page_size": {
						Type:        "integer",
						Description: "Maximum number of files to return per page",
					},
				},
			},
		},
		{
			Name:        "drive_folder_create",
			Description: "Create a folder",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"name": {
						Type:        "string",
						Description: "Folder name",
					},
					"parent_id": {
						Type:        "string",
						Description: "Parent folder ID",
					},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        "drive_file_upload",
			Description: "Upload a file (base64-encoded content, 10MB decoded limit)",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"name": {
						Type:        "string",
						Description: "File name",
					},
					"content": {
						Type:        "string",
						Description: "Base64-encoded file content",
					},
					"mime_type": {
						Type:        "string",
						Description: "MIME type (default application/octet-stream)",
					},
					"parent_id": {
						Type:        "string",
						Description: "Parent folder ID",
					},
				},
				Required: []string{"name", "content"},
			},
		},
		{
			Name:        "drive_file_delete",
			Description: "Delete a file permanently",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"file_id": fileID,
				},
				Required: []string{"file_id"},
			},
		},
		{
			Name:        "drive_file_get",
			Description: "Get file metadata",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"file_id": fileID,
				},
				Required: []string{"file_id"},
			},
		},
		{
			Name:        "drive_file_download",
			Description: "Download file content, base64-encoded; Workspace files are exported to the given MIME type",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"file_id": fileID,
					"export_mime_type": {
						Type:        "string",
						Description: "Export MIME type for Google Workspace files (e.g., 'text/csv')",
					},
				},
				Required: []string{"file_id"},
			},
		},
		{
			Name:        "drive_file_share",
			Description: "Share a file with a user by email, or with anyone holding the link",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"file_id": fileID,
					"email": {
						Type:        "string",
						Description: "Email address of the grantee; omit for an anyone-with-the-link grant",
					},
					"role": {
						Type:        "string",
						Description: "Granted role",
						Enum:        []string{"reader", "commenter", "writer"},
					},
				},
				Required: []string{"file_id", "role"},
			},
		},
		{
			Name:        "drive_file_move",
			Description: "Move a file to a different folder",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"file_id": fileID,
					"folder_id": {
						Type:        "string",
						Description: "Destination folder ID",
					},
				},
				Required: []string{"file_id", "folder_id"},
			},
		},
		{
			Name:        "drive_file_rename",
			Description: "Rename a file",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"file_id": fileID,
					"name": {
						Type:        "string",
						Description: "New file name",
					},
				},
				Required: []string{"file_id", "name"},
			},
		},
	}
}

// HandleToolCall handles a tool call for the Drive service.
func (h *Handler) HandleToolCall(ctx context.Context, call *gateway.ToolCall) (interface{}, error) {
	// The upload cap is checked before any Drive call, and before the client
	// is built for consistency with it.
	if call.Name == "drive_file_upload" {
		return h.handleUpload(ctx, call)
	}

	client, err := NewClient(ctx, call.Token)
	if err != nil {
		return nil, err
	}

	switch call.Name {
	case "drive_files_list":
		var args struct {
			Query    string `json:"query"`
			FolderID string `json:"folder_id"`
			PageSize int64  `json:"page_size"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if args.PageSize == 0 {
			args.PageSize = 100
		}
		files, err := client.ListFiles(ctx, args.Query, args.PageSize, args.FolderID)
		if err != nil {
			return nil, err
		}

		list := make([]map[string]interface{}, len(files))
		for i, file := range files {
			list[i] = map[string]interface{}{
				"id":           file.Id,
				"name":         file.Name,
				"mimeType":     file.MimeType,
				"size":         file.Size,
				"modifiedTime": file.ModifiedTime,
				"webViewLink":  file.WebViewLink,
			}
		}
		return map[string]interface{}{"files": list}, nil

	case "drive_folder_create":
		var args struct {
			Name     string `json:"name"`
			ParentID string `json:"parent_id"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		folder, err := client.CreateFolder(ctx, args.Name, args.ParentID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"id":          folder.Id,
			"name":        folder.Name,
			"mimeType":    folder.MimeType,
			"webViewLink": folder.WebViewLink,
		}, nil

	case "drive_file_delete":
		var args struct {
			FileID string `json:"file_id"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if err := client.DeleteFile(ctx, args.FileID); err != nil {
			return nil, err
		}
		return map[string]interface{}{"deleted": args.FileID}, nil

	case "drive_file_get":
		var args struct {
			FileID string `json:"file_id"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		file, err := client.GetFile(ctx, args.FileID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"id":           file.Id,
			"name":         file.Name,
			"mimeType":     file.MimeType,
			"size":         file.Size,
			"modifiedTime": file.ModifiedTime,
			"parents":      file.Parents,
			"webViewLink":  file.WebViewLink,
		}, nil

	case "drive_file_download":
		var args struct {
			FileID         string `json:"file_id"`
			ExportMimeType string `json:"export_mime_type"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}

		var data []byte
		if args.ExportMimeType != "" {
			data, err = client.ExportFile(ctx, args.FileID, args.ExportMimeType)
		} else {
			data, err = client.DownloadFile(ctx, args.FileID)
		}
		if err != nil {
			return nil, err
		}

		return map[string]interface{}{
			"fileId":  args.FileID,
			"size":    len(data),
			"content": base64.StdEncoding.EncodeToString(data),
		}, nil

	case "drive_file_share":
		var args struct {
			FileID string `json:"file_id"`
			Email  string `json:"email"`
			Role   string `json:"role"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		permission, err := client.ShareFile(ctx, args.FileID, args.Email, args.Role)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"permissionId": permission.Id,
			"type":         permission.Type,
			"role":         permission.Role,
			"emailAddress": permission.EmailAddress,
		}, nil

	case "drive_file_move":
		var args struct {
			FileID   string `json:"file_id"`
			FolderID string `json:"folder_id"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		file, err := client.MoveFile(ctx, args.FileID, args.FolderID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"id":      file.Id,
			"name":    file.Name,
			"parents": file.Parents,
		}, nil

	case "drive_file_rename":
		var args struct {
			FileID string `json:"file_id"`
			Name   string `json:"name"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		file, err := client.RenameFile(ctx, args.FileID, args.Name)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"id":   file.Id,
			"name": file.Name,
		}, nil

	default:
		return nil, apierr.UnknownTool(call.Name)
	}
}

func (h *Handler) handleUpload(ctx context.Context, call *gateway.ToolCall) (interface{}, error) {
	var args struct {
		Name     string `json:"name"`
		Content  string `json:"content"`
		MimeType string `json:"mime_type"`
		ParentID string `json:"parent_id"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	content, err := base64.StdEncoding.DecodeString(args.Content)
	if err != nil {
		return nil, fmt.Errorf("content must be base64-encoded: %w", err)
	}
	if len(content) > MaxUploadBytes {
		return nil, apierr.PayloadTooLarge(len(content), MaxUploadBytes)
	}

	if args.MimeType == "" {
		args.MimeType = "application/octet-stream"
	}

	client, err := NewClient(ctx, call.Token)
	if err != nil {
		return nil, err
	}

	file, err := client.UploadFile(ctx, args.Name, args.MimeType, content, args.ParentID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":          file.Id,
		"name":        file.Name,
		"mimeType":    file.MimeType,
		"size":        file.Size,
		"webViewLink": file.WebViewLink,
	}, nil
}
