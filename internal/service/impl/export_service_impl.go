package impl

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"tacacs-admin/internal/atomicfile"
	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	"tacacs-admin/internal/observability/metrics"
	"tacacs-admin/internal/store"
	"tacacs-admin/internal/tacconf"
)

const (
	FileUsers      = "users"
	FileHosts      = "hosts"
	FileHostGroups = "host_groups"
)

// exportFileMode keeps password hashes and shared keys away from other users.
const exportFileMode = 0o640

// ExportServiceImpl materializes the store into the tac_plus-ng files. Each
// file is replaced atomically, in the order users, hosts, host_groups; a
// failure part way leaves the earlier files updated.
type ExportServiceImpl struct {
	Store exportReader
	Dir   string
}

func NewExportServiceImpl(st *store.Store, dir string) *ExportServiceImpl {
	return &ExportServiceImpl{Store: exportAdapter{store: st}, Dir: dir}
}

type exportReader interface {
	UserGroupRows(ctx context.Context) ([]store.UserGroupRow, error)
	HostGroupRows(ctx context.Context) ([]store.HostGroupRow, error)
	HostGroups(ctx context.Context) ([]domain.HostGroup, error)
}

type exportAdapter struct {
	store *store.Store
}

func (a exportAdapter) UserGroupRows(ctx context.Context) ([]store.UserGroupRow, error) {
	return a.store.Export().UserGroupRows(ctx)
}

func (a exportAdapter) HostGroupRows(ctx context.Context) ([]store.HostGroupRow, error) {
	return a.store.Export().HostGroupRows(ctx)
}

func (a exportAdapter) HostGroups(ctx context.Context) ([]domain.HostGroup, error) {
	return a.store.HostGroups().List(ctx)
}

func (e *ExportServiceImpl) Export(ctx context.Context) (*dto.ExportResponse, error) {
	start := time.Now()
	out, err := e.export(ctx)
	metrics.ExportDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExportRunsTotal.WithLabelValues("error").Inc()
		slog.Error("config export failed", "dir", e.Dir, "error", err)
		return nil, err
	}
	metrics.ExportRunsTotal.WithLabelValues("ok").Inc()
	for _, f := range out.Files {
		metrics.ExportRecords.WithLabelValues(f.File).Set(float64(f.Records))
	}
	slog.Info("config exported", "dir", e.Dir, "files", out.Files)
	return out, nil
}

func (e *ExportServiceImpl) export(ctx context.Context) (*dto.ExportResponse, error) {
	if e.Dir == "" {
		return nil, invalid("export directory is not configured")
	}

	userRows, err := e.Store.UserGroupRows(ctx)
	if err != nil {
		return nil, err
	}
	hostRows, err := e.Store.HostGroupRows(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := e.Store.HostGroups(ctx)
	if err != nil {
		return nil, err
	}

	users := BuildUserEntries(userRows)
	hosts := BuildHostEntries(hostRows)
	hostGroups := make([]tacconf.HostGroupEntry, 0, len(groups))
	for _, g := range groups {
		hostGroups = append(hostGroups, tacconf.HostGroupEntry{Name: g.Name, Key: g.TacacsKey})
	}
	sort.SliceStable(hostGroups, func(i, j int) bool { return hostGroups[i].Name < hostGroups[j].Name })

	contents := map[string]string{
		FileUsers:      tacconf.RenderUsers(users),
		FileHosts:      tacconf.RenderHosts(hosts),
		FileHostGroups: tacconf.RenderHostGroups(hostGroups),
	}
	files := []dto.ExportFile{
		{File: FileUsers, Records: len(users)},
		{File: FileHosts, Records: len(hosts)},
		{File: FileHostGroups, Records: len(hostGroups)},
	}
	for _, f := range files {
		if err := atomicfile.Write(filepath.Join(e.Dir, f.File), []byte(contents[f.File]), exportFileMode); err != nil {
			return nil, err
		}
	}

	return &dto.ExportResponse{Path: e.Dir, Files: files, FileContents: contents}, nil
}

// BuildUserEntries groups membership rows per user, ordered by username,
// with member groups sorted and de-duplicated.
func BuildUserEntries(rows []store.UserGroupRow) []tacconf.UserEntry {
	index := make(map[string]int)
	var out []tacconf.UserEntry
	for _, r := range rows {
		i, ok := index[r.Username]
		if !ok {
			i = len(out)
			index[r.Username] = i
			out = append(out, tacconf.UserEntry{Name: r.Username, PasswordHash: r.PasswordHash})
		}
		if r.GroupName != nil && *r.GroupName != "" {
			out[i].Members = append(out[i].Members, *r.GroupName)
		}
	}
	for i := range out {
		out[i].Members = sortedUnique(out[i].Members)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BuildHostEntries produces one entry per host, named by hostname or else
// address. A host in several groups gets the alphabetically smallest one as
// its template.
func BuildHostEntries(rows []store.HostGroupRow) []tacconf.HostEntry {
	index := make(map[string]int)
	var out []tacconf.HostEntry
	for _, r := range rows {
		i, ok := index[r.IPAddress]
		if !ok {
			i = len(out)
			index[r.IPAddress] = i
			h := domain.Host{IPAddress: r.IPAddress, Hostname: r.Hostname}
			out = append(out, tacconf.HostEntry{Name: h.EffectiveName(), Address: r.IPAddress})
		}
		if r.GroupName == nil || *r.GroupName == "" {
			continue
		}
		if out[i].Template == "" || *r.GroupName < out[i].Template {
			out[i].Template = *r.GroupName
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Address < out[j].Address
	})
	return out
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
