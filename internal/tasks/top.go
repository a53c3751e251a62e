package tasks

import (
	"context"

	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vsphere-proxy/pkg/vsphere"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

func init() {
	register("about", nil, about)
	register("event.latest", nil, eventLatest)
	register("session.get", nil, sessionGet)
	register("perf.metric.info", nil, perfMetricInfoTop)
	register("perf.interval.info", nil, perfIntervalInfo)
}

// aboutDefaultProperties is the sole exception to the catalog's
// otherwise-universal ["name"] default: "about" has no "name" concept
// at all, so it falls back to ["fullName"] instead (grounded on
// original_source/src/vpoller/vsphere/tasks.py's about()).
var aboutDefaultProperties = []string{"fullName"}

func about(s *vsphere.Session, req wire.Request) wire.Reply {
	properties := req.Properties
	if len(properties) == 0 {
		properties = aboutDefaultProperties
	}

	info := s.About()
	rec := make(map[string]any, len(properties))
	for _, p := range properties {
		rec[p] = aboutField(info, p)
	}
	return wire.OK("Successfully retrieved properties", []map[string]any{rec})
}

// aboutField looks up one named field of AboutInfo, matching about()'s
// getattr(agent.si.content.about, prop, '(null)') over the commonly
// requested subset of AboutInfo's fields.
func aboutField(info types.AboutInfo, prop string) any {
	switch prop {
	case "fullName":
		return info.FullName
	case "name":
		return info.Name
	case "vendor":
		return info.Vendor
	case "version":
		return info.Version
	case "build":
		return info.Build
	case "localeVersion":
		return info.LocaleVersion
	case "localeBuild":
		return info.LocaleBuild
	case "osType":
		return info.OsType
	case "productLineId":
		return info.ProductLineId
	case "apiType":
		return info.ApiType
	case "apiVersion":
		return info.ApiVersion
	case "instanceUuid":
		return info.InstanceUuid
	case "licenseProductName":
		return info.LicenseProductName
	case "licenseProductVersion":
		return info.LicenseProductVersion
	default:
		return "(null)"
	}
}

func eventLatest(s *vsphere.Session, _ wire.Request) wire.Reply {
	msg, err := s.LatestEvent(context.Background())
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}
	return wire.OK("Successfully retrieved event", []map[string]any{{"event": msg}})
}

func sessionGet(s *vsphere.Session, _ wire.Request) wire.Reply {
	sessions, err := s.Sessions(context.Background())
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}

	records := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		records = append(records, map[string]any{
			"key":            sess.Key,
			"userName":       sess.UserName,
			"fullName":       sess.FullName,
			"loginTime":      sess.LoginTime.Format("2006-01-02T15:04:05Z07:00"),
			"lastActiveTime": sess.LastActiveTime.Format("2006-01-02T15:04:05Z07:00"),
			"ipAddress":      sess.IpAddress,
			"userAgent":      sess.UserAgent,
			"callCount":      sess.CallCount,
		})
	}
	return wire.OK("Successfully retrieved sessions", records)
}

func perfMetricInfoTop(s *vsphere.Session, _ wire.Request) wire.Reply {
	infos, err := s.AllCounterInfos(context.Background())
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}

	records := make([]map[string]any, 0, len(infos))
	for _, c := range infos {
		records = append(records, map[string]any{
			"key": c.Key,
			"nameInfo": map[string]any{
				"label":   c.NameInfo.GetElementDescription().Label,
				"summary": c.NameInfo.GetElementDescription().Summary,
				"key":     c.NameInfo.GetElementDescription().Key,
			},
			"groupInfo": map[string]any{
				"label":   c.GroupInfo.GetElementDescription().Label,
				"summary": c.GroupInfo.GetElementDescription().Summary,
				"key":     c.GroupInfo.GetElementDescription().Key,
			},
			"unitInfo": map[string]any{
				"label":   c.UnitInfo.GetElementDescription().Label,
				"summary": c.UnitInfo.GetElementDescription().Summary,
				"key":     c.UnitInfo.GetElementDescription().Key,
			},
			"rollupType":     string(c.RollupType),
			"statsType":      string(c.StatsType),
			"level":          c.Level,
			"perDeviceLevel": c.PerDeviceLevel,
		})
	}
	return wire.OK("Successfully retrieved performance metrics info", records)
}

func perfIntervalInfo(s *vsphere.Session, _ wire.Request) wire.Reply {
	intervals, err := s.HistoricalIntervals(context.Background())
	if err != nil {
		return wire.Errf("Cannot collect properties: %s", err)
	}

	records := make([]map[string]any, 0, len(intervals))
	for _, i := range intervals {
		records = append(records, map[string]any{
			"enabled":        i.Enabled,
			"key":            i.Key,
			"length":         i.Length,
			"level":          i.Level,
			"name":           i.Name,
			"samplingPeriod": i.SamplingPeriod,
		})
	}
	return wire.OK("Successfully retrieved performance historical intervals", records)
}
