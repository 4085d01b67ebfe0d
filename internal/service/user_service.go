package service

import (
	"context"
	"strings"

	"videotube/internal/identity"
	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

// PasswordHasher hashes a new password after validating it.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type UserService struct {
	users   repository.UserRepository
	videos  repository.VideoRepository
	views   *Views
	store   media.Store
	remover MediaRemover
	hasher  PasswordHasher
}

func NewUserService(
	users repository.UserRepository,
	videos repository.VideoRepository,
	views *Views,
	store media.Store,
	remover MediaRemover,
	hasher PasswordHasher,
) *UserService {
	return &UserService{users: users, videos: videos, views: views, store: store, remover: remover, hasher: hasher}
}

type UpdateAccountInput struct {
	FullName string
	Email    string
	Viewer   relview.Viewer
}

type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
	Viewer      relview.Viewer
}

// CurrentUser returns the account of the viewer.
func (s *UserService) CurrentUser(ctx context.Context, viewer relview.Viewer) (*models.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, viewer.ID)
}

// UpdateAccount replaces the viewer's full name and email.
func (s *UserService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	if err := requireViewer(in.Viewer); err != nil {
		return nil, err
	}
	fullName, err := requireText("Full name", in.FullName, maxFullNameLen)
	if err != nil {
		return nil, err
	}
	email := identity.NormalizeEmail(in.Email)
	if email == "" {
		return nil, models.NewValidationError("Email is required")
	}
	if err := identity.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.users.Update(ctx, in.Viewer.ID, repository.UserFields{FullName: &fullName, Email: &email})
}

func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := requireViewer(in.Viewer); err != nil {
		return err
	}
	if in.OldPassword == "" || in.NewPassword == "" {
		return models.NewValidationError("Old and new password are required")
	}
	user, err := s.users.GetByID(ctx, in.Viewer.ID)
	if err != nil {
		return err
	}
	if !identity.CheckPassword(user, in.OldPassword) {
		return models.NewValidationError("Invalid old password")
	}
	hash, err := s.hasher.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// UpdateAvatar stores a new avatar and removes the previous one.
func (s *UserService) UpdateAvatar(ctx context.Context, obj *media.Object, viewer relview.Viewer) (*models.User, error) {
	return s.replaceImage(ctx, obj, viewer, "avatars", func(u *models.User) string { return u.AvatarKey },
		func(f *repository.UserFields, ref *media.Ref) {
			f.Avatar = &ref.URL
			f.AvatarKey = &ref.Handle
		})
}

// UpdateCoverImage stores a new cover image and removes the previous one.
func (s *UserService) UpdateCoverImage(ctx context.Context, obj *media.Object, viewer relview.Viewer) (*models.User, error) {
	return s.replaceImage(ctx, obj, viewer, "covers", func(u *models.User) string { return u.CoverImageKey },
		func(f *repository.UserFields, ref *media.Ref) {
			f.CoverImage = &ref.URL
			f.CoverImageKey = &ref.Handle
		})
}

func (s *UserService) replaceImage(
	ctx context.Context,
	obj *media.Object,
	viewer relview.Viewer,
	folder string,
	oldKey func(*models.User) string,
	set func(*repository.UserFields, *media.Ref),
) (*models.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, models.NewValidationError("Image file is required")
	}
	if !strings.HasPrefix(obj.ContentType, "image/") {
		return nil, models.NewValidationError("File must be an image")
	}
	user, err := s.users.GetByID(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	obj.Folder = folder
	ref, err := s.store.Upload(ctx, *obj)
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	var fields repository.UserFields
	set(&fields, &ref)
	updated, err := s.users.Update(ctx, user.ID, fields)
	if err != nil {
		s.remover.Remove(ctx, ref.Handle)
		return nil, err
	}
	s.remover.Remove(ctx, oldKey(user))
	return updated, nil
}

// ChannelProfile returns the channel page header of username.
func (s *UserService) ChannelProfile(ctx context.Context, username string, viewer relview.Viewer) (*models.ChannelProfile, error) {
	username = identity.NormalizeUsername(username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	profile := &models.ChannelProfile{
		UserSummary: *models.SummaryOf(user),
		Email:       user.Email,
		CoverImage:  user.CoverImage,
	}
	view, _, err := s.views.Profiles().One(ctx, profile, viewer)
	return view, err
}

// WatchHistory pages through the viewer's watched videos, most recently
// first watched first. Videos that became private are skipped.
func (s *UserService) WatchHistory(ctx context.Context, viewer relview.Viewer, req relview.PageRequest) (relview.Page[*models.VideoView], error) {
	if err := requireViewer(viewer); err != nil {
		return relview.Page[*models.VideoView]{}, err
	}
	entries, err := s.users.WatchHistory(ctx, viewer.ID)
	if err != nil {
		return relview.Page[*models.VideoView]{}, err
	}
	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.VideoID
	}
	videos, err := s.videos.ByIDs(ctx, ids)
	if err != nil {
		return relview.Page[*models.VideoView]{}, err
	}

	ordered := inOrder(videoViews(videos), ids, func(v *models.VideoView) uint { return v.ID })
	ordered = relview.Filter(ordered, visibleTo(viewer))
	return expandPage(ctx, s.views.Videos(), ordered, req, viewer)
}
