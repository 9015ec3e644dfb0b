package services

// ImportServiceProvider defines the interface for the Quick List
// import operation.
type ImportServiceProvider interface {
	ImportQuickList(targetUserID int64, quickListPassword string, defaultGroupID int64) error
}

// ImportService orchestrates the one-way transfer of a Quick List
// account's timers and groups into a regular account. The Quick List
// account is deleted afterwards, so its password can never be used
// again.
type ImportService struct {
	users  UserServiceProvider
	groups GroupServiceProvider
}

// NewImportService creates a new ImportService.
func NewImportService(users UserServiceProvider, groups GroupServiceProvider) *ImportService {
	return &ImportService{users: users, groups: groups}
}

// ImportQuickList verifies the composite Quick List password and
// merges the account it identifies into the target account. Timers
// that belong to no group land in defaultGroupID when one is supplied
// (non-zero); the group must be the target's own. Every failure mode
// returns the same ErrNotFound so that nothing about the Quick List
// account's existence leaks.
func (s *ImportService) ImportQuickList(targetUserID int64, quickListPassword string, defaultGroupID int64) error {
	source, err := s.users.ResolveQuickList(quickListPassword)
	if err != nil {
		return ErrNotFound
	}
	if source.ID == targetUserID {
		return ErrNotFound
	}
	if defaultGroupID != 0 {
		if _, err := s.groups.GetGroupByID(targetUserID, defaultGroupID); err != nil {
			return ErrNotFound
		}
	}
	if err := s.users.Merge(source.ID, targetUserID, defaultGroupID); err != nil {
		return ErrNotFound
	}
	return nil
}
