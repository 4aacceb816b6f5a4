package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/family"
)

type familyRepository struct {
	db *familyTable
}

var _ family.Repository = (*familyRepository)(nil) // interface compliance check

func NewFamilyRepository(db *DB) family.Repository {
	return &familyRepository{db: db.family}
}

func (repo *familyRepository) query() []family.Family {
	fams := make([]family.Family, 0, len(repo.db.families))
	for _, f := range repo.db.families {
		fams = append(fams, *f)
	}
	return fams
}

func (repo *familyRepository) CheckNationalIDUniqueness(ctx context.Context, nationalID string, excluded ...family.Family) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, f := range excluded {
		excl[f.ID] = true
	}
	for _, fam := range repo.query() {
		if fam.NationalID == nationalID && !excl[fam.ID] {
			return family.ErrNationalIDExists
		}
	}
	return nil
}

func (repo *familyRepository) CreateFamily(ctx context.Context, fam family.Family) (family.Family, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	fam.ID = uuid.New().String()
	now := time.Now().UTC()
	fam.CreatedAt, fam.UpdatedAt = now, now
	repo.db.families[fam.ID] = &fam
	return fam, nil
}

func (repo *familyRepository) GetFamilyByID(ctx context.Context, id string) (family.Family, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if fam, ok := repo.db.families[id]; ok {
		return *fam, nil
	}
	return family.Family{}, family.ErrNotFound
}

func (repo *familyRepository) GetFamilyByNationalID(ctx context.Context, nationalID string) (family.Family, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, fam := range repo.query() {
		if fam.NationalID == nationalID {
			return fam, nil
		}
	}
	return family.Family{}, family.ErrNotFound
}

func (repo *familyRepository) FilterFamilies(ctx context.Context, filter family.QueryFilter, ordering []core.DBOrdering) ([]family.Family, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fams := repo.query()

	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		var filtered []family.Family
		for _, f := range fams {
			if strings.Contains(strings.ToLower(f.RepresentativeName), kw) ||
				strings.Contains(strings.ToLower(f.NationalID), kw) ||
				strings.Contains(strings.ToLower(f.Phone), kw) {
				filtered = append(filtered, f)
			}
		}
		fams = filtered
	}
	if fams != nil && filter.Status != "" {
		var filtered []family.Family
		for _, f := range fams {
			if f.Status == filter.Status {
				filtered = append(filtered, f)
			}
		}
		fams = filtered
	}
	if fams != nil && filter.District != "" {
		var filtered []family.Family
		for _, f := range fams {
			if strings.EqualFold(f.District, filter.District) {
				filtered = append(filtered, f)
			}
		}
		fams = filtered
	}
	if fams != nil && filter.Zone != "" {
		var filtered []family.Family
		for _, f := range fams {
			if strings.EqualFold(f.DistributionZone, filter.Zone) {
				filtered = append(filtered, f)
			}
		}
		fams = filtered
	}
	if fams != nil && filter.IsActive != nil {
		var filtered []family.Family
		for _, f := range fams {
			if f.Active() == *filter.IsActive {
				filtered = append(filtered, f)
			}
		}
		fams = filtered
	}
	sort.Slice(fams, func(i, j int) bool { return fams[i].CreatedAt.Before(fams[j].CreatedAt) })
	return fams, nil
}

func (repo *familyRepository) UpdateFamily(ctx context.Context, fam family.Family) (family.Family, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.families[fam.ID]; !ok {
		return family.Family{}, family.ErrNotFound
	}
	fam.UpdatedAt = time.Now().UTC()
	repo.db.families[fam.ID] = &fam
	return fam, nil
}

func (repo *familyRepository) CreateMember(ctx context.Context, mbr family.Member) (family.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mbr.ID = uuid.New().String()
	now := time.Now().UTC()
	mbr.CreatedAt, mbr.UpdatedAt = now, now
	repo.db.members[mbr.ID] = &mbr
	return mbr, nil
}

func (repo *familyRepository) GetMemberByID(ctx context.Context, id string) (family.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mbr, ok := repo.db.members[id]; ok {
		return *mbr, nil
	}
	return family.Member{}, family.ErrMemberNotFound
}

func (repo *familyRepository) GetFamilyMembers(ctx context.Context, familyID string) ([]family.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var members []family.Member
	for _, mbr := range repo.db.members {
		if mbr.FamilyID == familyID {
			members = append(members, *mbr)
		}
	}
	// head first, then oldest record first
	sort.Slice(members, func(i, j int) bool {
		if members[i].IsHead != members[j].IsHead {
			return members[i].IsHead
		}
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

func (repo *familyRepository) UpdateMember(ctx context.Context, mbr family.Member) (family.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.members[mbr.ID]; !ok {
		return family.Member{}, family.ErrMemberNotFound
	}
	mbr.UpdatedAt = time.Now().UTC()
	repo.db.members[mbr.ID] = &mbr
	return mbr, nil
}

func (repo *familyRepository) DeleteMember(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.members[id]; !ok {
		return family.ErrMemberNotFound
	}
	delete(repo.db.members, id)
	return nil
}

func (repo *familyRepository) CreateDocument(ctx context.Context, doc family.Document) (family.Document, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	doc.ID = uuid.New().String()
	doc.CreatedAt = time.Now().UTC()
	repo.db.documents[doc.ID] = &doc
	return doc, nil
}

func (repo *familyRepository) GetDocumentByID(ctx context.Context, id string) (family.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if doc, ok := repo.db.documents[id]; ok {
		return *doc, nil
	}
	return family.Document{}, family.ErrDocumentNotFound
}

func (repo *familyRepository) GetFamilyDocuments(ctx context.Context, familyID string) ([]family.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var docs []family.Document
	for _, doc := range repo.db.documents {
		if doc.FamilyID == familyID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (repo *familyRepository) DeleteDocument(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.documents[id]; !ok {
		return family.ErrDocumentNotFound
	}
	delete(repo.db.documents, id)
	return nil
}
