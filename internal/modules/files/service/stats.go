package service

import (
	"context"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
)

const statsTopN = 5

func (s *Service) Stats(ctx context.Context, userID uint) (*dto.StatsResponse, error) {
	totalCount, totalSize, err := s.files.Stats(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	counts, sizes, err := s.files.CategoryCounts(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	categories := make([]dto.CategoryStat, 0, len(counts))
	for cat, count := range counts {
		categories = append(categories, dto.CategoryStat{Category: string(cat), Count: count, Size: sizes[cat]})
	}

	recent, err := s.files.RecentUploads(ctx, userID, statsTopN)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	recentUploads := make([]dto.RecentFile, len(recent))
	for i, f := range recent {
		recentUploads[i] = dto.RecentFile{ID: f.ID, Name: f.OriginalName, CreatedAt: f.CreatedAt}
	}

	popular, err := s.files.MostDownloaded(ctx, userID, statsTopN)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	mostDownloaded := make([]dto.PopularFile, len(popular))
	for i, f := range popular {
		mostDownloaded[i] = dto.PopularFile{ID: f.ID, Name: f.OriginalName, DownloadCount: f.DownloadCount}
	}

	return &dto.StatsResponse{
		TotalFiles:     totalCount,
		TotalSize:      totalSize,
		Categories:     categories,
		RecentUploads:  recentUploads,
		MostDownloaded: mostDownloaded,
	}, nil
}

func (s *Service) Folders(ctx context.Context, userID uint) (*dto.FoldersResponse, error) {
	folders, counts, err := s.files.DistinctFolders(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &dto.FoldersResponse{Folders: folders, Counts: counts}, nil
}

// Move sets folder on every file owned by the requester among the given
// ids; ids the requester does not own are silently skipped. Each file is
// saved on its own with no enclosing transaction, so a failed save
// returns an error with the files before it already moved.
func (s *Service) Move(ctx context.Context, userID uint, req dto.MoveRequest) error {
	owned, err := s.files.FindByIDsOwned(ctx, req.FileIDs, userID)
	if err != nil {
		return apperr.Internal(err)
	}

	folder := normalizeFolder(req.TargetFolder)
	for i := range owned {
		owned[i].Folder = folder
		if err := s.files.Save(ctx, &owned[i]); err != nil {
			return apperr.Internal(err)
		}
	}
	return nil
}
