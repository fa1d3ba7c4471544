package catalog

import "context"

// buildView converts a cover record into its external representation.
// The access URL is minted fresh on every call. When presigning fails
// the view degrades to the public (non-expiring) URL rather than
// failing the whole read; if that is also unavailable the URL is left
// empty and the caller gets metadata only.
func (s *service) buildView(ctx context.Context, cover *Cover) *CoverView {
	view := &CoverView{
		ID:          cover.ID,
		AlbumID:     cover.AlbumID,
		FileName:    cover.FileName,
		ContentType: cover.ContentType,
		FileSize:    cover.FileSize,
		IsPrimary:   cover.IsPrimary,
		CreatedAt:   cover.CreatedAt,
	}

	url, err := s.store.PresignGet(ctx, cover.ObjectKey, s.presignExpiry)
	if err != nil {
		s.logger.Warn("presign failed, falling back to public url",
			"cover_id", cover.ID, "object_key", cover.ObjectKey, "error", err)
		url = s.store.PublicURL(cover.ObjectKey)
	}
	view.AccessURL = url

	return view
}
