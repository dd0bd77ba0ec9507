package catalog

import "context"

// Store is the persistence surface of the catalog. Lookups return
// (nil, nil) when the record does not exist.
type Store interface {
	CreateSchool(ctx context.Context, s *School) error
	SchoolByCode(ctx context.Context, code string) (*School, error)
	ListSchools(ctx context.Context, activeOnly bool) ([]*School, error)
	UpdateSchool(ctx context.Context, s *School) error

	CreateSubject(ctx context.Context, s *Subject) error
	SubjectByID(ctx context.Context, id int64) (*Subject, error)
	ListSubjects(ctx context.Context, schoolID int64) ([]*Subject, error)

	CreateTopic(ctx context.Context, t *SubjectTopic) error
	TopicByID(ctx context.Context, id int64) (*SubjectTopic, error)
	ListTopics(ctx context.Context, subjectID int64) ([]*SubjectTopic, error)

	CreateMember(ctx context.Context, m *FamilyMember) error
	ListMembers(ctx context.Context) ([]*FamilyMember, error)

	// SetConfig upserts a config entry's value, creating the row when the
	// key is new.
	SetConfig(ctx context.Context, key string, value *string, description string, required bool) (*ConfigEntry, error)
	ConfigEntryByKey(ctx context.Context, key string) (*ConfigEntry, error)
	ListConfig(ctx context.Context) ([]*ConfigEntry, error)
	// ConfigValue satisfies ledger.ConfigReader.
	ConfigValue(ctx context.Context, key string) (string, bool, error)

	CreateProvider(ctx context.Context, p *SyncProvider) error
	ProviderByCode(ctx context.Context, code string) (*SyncProvider, error)
	ListProviders(ctx context.Context) ([]*SyncProvider, error)
	UpdateProvider(ctx context.Context, p *SyncProvider) error
}
