package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// folderMimeType is the Drive MIME type for folders.
const folderMimeType = "application/vnd.google-apps.folder"

// Client wraps the Google Drive API client. Like the Sheets client it is
// built per tool call from the caller's bearer token.
type Client struct {
	service *drive.Service
}

// NewClient creates a Drive client authenticated with the given access token.
func NewClient(ctx context.Context, accessToken string) (*Client, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := drive.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{service: service}, nil
}

// listQuery combines a caller-supplied query with a parent folder filter. The
// folder id is embedded in a single-quoted Drive query literal, so backslashes
// and quotes in it must be escaped.
func listQuery(query, parentID string) string {
	if parentID == "" {
		return query
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(parentID)
	parentQuery := fmt.Sprintf("'%s' in parents", escaped)
	if query == "" {
		return parentQuery
	}
	return query + " and " + parentQuery
}

// ListFiles lists files and folders.
func (c *Client) ListFiles(ctx context.Context, query string, pageSize int64, parentID string) ([]*drive.File, error) {
	call := c.service.Files.List().
		Fields("nextPageToken, files(id, name, mimeType, size, modifiedTime, parents, webViewLink)")

	if q := listQuery(query, parentID); q != "" {
		call = call.Q(q)
	}
	if pageSize > 0 {
		call = call.PageSize(pageSize)
	}

	var files []*drive.File
	err := call.Pages(ctx, func(page *drive.FileList) error {
		files = append(files, page.Files...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// GetFile gets file metadata.
func (c *Client) GetFile(ctx context.Context, fileID string) (*drive.File, error) {
	file, err := c.service.Files.Get(fileID).
		Fields("id, name, mimeType, size, modifiedTime, parents, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// DownloadFile downloads a file's content. Workspace-native files have no
// byte content and must be exported instead.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return data, nil
}

// ExportFile exports a Google Workspace file to the given MIME type.
func (c *Client) ExportFile(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	resp, err := c.service.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to export file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exported content: %w", err)
	}
	return data, nil
}

// UploadFile uploads file content.
func (c *Client) UploadFile(ctx context.Context, name, mimeType string, content []byte, parentID string) (*drive.File, error) {
	file := &drive.File{
		Name:     name,
		MimeType: mimeType,
	}
	if parentID != "" {
		file.Parents = []string{parentID}
	}

	created, err := c.service.Files.Create(file).
		Media(bytes.NewReader(content)).
		Fields("id, name, mimeType, size, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return created, nil
}

// CreateFolder creates a folder.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	folder := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	created, err := c.service.Files.Create(folder).
		Fields("id, name, mimeType, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return created, nil
}

// DeleteFile deletes a file permanently.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// MoveFile moves a file to a different folder.
func (c *Client) MoveFile(ctx context.Context, fileID, newParentID string) (*drive.File, error) {
	file, err := c.service.Files.Get(fileID).Fields("id, parents").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	var removeParents string
	if len(file.Parents) > 0 {
		removeParents = file.Parents[0]
	}

	updated, err := c.service.Files.Update(fileID, &drive.File{}).
		AddParents(newParentID).
		RemoveParents(removeParents).
		Fields("id, name, parents").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to move file: %w", err)
	}

	return updated, nil
}

// RenameFile renames a file.
func (c *Client) RenameFile(ctx context.Context, fileID, newName string) (*drive.File, error) {
	updated, err := c.service.Files.Update(fileID, &drive.File{Name: newName}).
		Fields("id, name").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	return updated, nil
}

// ShareFile grants a role on a file. With an email the grant is per-user;
// without one it is an anyone-with-the-link grant.
func (c *Client) ShareFile(ctx context.Context, fileID, email, role string) (*drive.Permission, error) {
	permission := &drive.Permission{Role: role}
	call := c.service.Permissions.Create(fileID, permission)
	if email != "" {
		permission.Type = "user"
		permission.EmailAddress = email
		call = call.SendNotificationEmail(true)
	} else {
		permission.Type = "anyone"
	}

	created, err := call.Fields("id, type, role, emailAddress").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to share file: %w", err)
	}

	return created, nil
}
