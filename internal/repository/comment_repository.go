package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// CommentRepository manages append-only ticket thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	CreateAttachment(ctx context.Context, att *domain.AttachmentReference) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, author_name, author_role, body, is_internal, sentiment, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.AuthorName,
		comment.AuthorRole,
		comment.Body,
		comment.IsInternal,
		comment.Sentiment,
		comment.CreatedAt,
	).Scan(&comment.ID)
}

func (r *commentRepository) CreateAttachment(ctx context.Context, att *domain.AttachmentReference) error {
	const query = `
        INSERT INTO comment_attachments (comment_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		att.CommentID,
		att.StorageKey,
		att.FileName,
		att.MimeType,
		att.SizeBytes,
	).Scan(&att.ID, &att.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, author_name, author_role, body, is_internal, sentiment, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.AuthorRole,
			&comment.Body,
			&comment.IsInternal,
			&comment.Sentiment,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		attachments, err := r.listAttachments(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Attachments = attachments
	}
	return result, nil
}

func (r *commentRepository) listAttachments(ctx context.Context, commentID string) ([]domain.AttachmentReference, error) {
	const query = `
        SELECT id, comment_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM comment_attachments WHERE comment_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttachmentReference
	for rows.Next() {
		var att domain.AttachmentReference
		if err := rows.Scan(
			&att.ID,
			&att.CommentID,
			&att.StorageKey,
			&att.FileName,
			&att.MimeType,
			&att.SizeBytes,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}
