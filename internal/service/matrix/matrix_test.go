package matrix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vpcpeer/internal/service/peering"
	"vpcpeer/internal/service/routes"
)

const sample = `
peers:
  shared:
    vpc_id: vpc-shared
    region: ap-northeast-1
    role_arn: arn:aws:iam::111111111111:role/peering
    cidr: 10.0.0.0/16
    route_table_ids: [rtb-shared-a]
  app:
    vpc_id: vpc-app
    region: us-west-2
    role_arn: arn:aws:iam::222222222222:role/peering
    dns_resolution: true
  batch:
    vpc_id: vpc-batch
    region: ap-northeast-1
    role_arn: arn:aws:iam::333333333333:role/peering
peering_matrix:
  shared: [batch, app]
`

func TestPairs(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	pairs, err := f.Pairs("")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range pairs {
		names = append(names, p.Name())
	}
	if diff := cmp.Diff([]string{"shared-to-app", "shared-to-batch"}, names); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}

	wantPeering := peering.Request{
		LocalVpcId:         "vpc-shared",
		PeerVpcId:          "vpc-app",
		PeerRegion:         "us-west-2",
		PeerRoleArn:        "arn:aws:iam::222222222222:role/peering",
		Name:               "shared-to-app",
		EnvName:            "prd",
		AllowDnsResolution: true,
	}
	if diff := cmp.Diff(wantPeering, pairs[0].PeeringRequest("prd")); diff != "" {
		t.Errorf("peering request mismatch (-want +got):\n%s", diff)
	}

	wantRoutes := routes.Request{
		PeeringConnectionId: "pcx-0123456789abcdef0",
		PeerVpcId:           "vpc-app",
		PeerRegion:          "us-west-2",
		PeerRoleArn:         "arn:aws:iam::222222222222:role/peering",
		DestinationCidr:     "10.0.0.0/16",
		LocalVpcId:          "vpc-shared",
	}
	if diff := cmp.Diff(wantRoutes, pairs[0].RoutesRequest("pcx-0123456789abcdef0")); diff != "" {
		t.Errorf("routes request mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"rtb-shared-a"}, pairs[0].Source.RouteTableIds); diff != "" {
		t.Errorf("route tables mismatch (-want +got):\n%s", diff)
	}
}

func TestPairsErrors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		source string
		want   string
	}{
		{
			name:   "unknown source filter",
			yaml:   sample,
			source: "nothing",
			want:   "nothing",
		},
		{
			name: "unknown target",
			yaml: `
peers:
  a: {vpc_id: vpc-a, region: us-east-1, role_arn: arn:aws:iam::111111111111:role/x}
peering_matrix:
  a: [b]
`,
			want: `"b"`,
		},
		{
			name: "self peering",
			yaml: `
peers:
  a: {vpc_id: vpc-a, region: us-east-1, role_arn: arn:aws:iam::111111111111:role/x}
peering_matrix:
  a: [a]
`,
			want: "自分自身",
		},
		{
			name: "reverse duplicate",
			yaml: `
peers:
  a: {vpc_id: vpc-a, region: us-east-1, role_arn: arn:aws:iam::111111111111:role/x}
  b: {vpc_id: vpc-b, region: us-east-1, role_arn: arn:aws:iam::222222222222:role/x}
peering_matrix:
  a: [b]
  b: [a]
`,
			want: "重複",
		},
		{
			name: "target without role",
			yaml: `
peers:
  a: {vpc_id: vpc-a, region: us-east-1}
  b: {vpc_id: vpc-b, region: us-east-1}
peering_matrix:
  a: [b]
`,
			want: "role_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			_, err = f.Pairs(tt.source)
			if err == nil {
				t.Fatal("error expected")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("peers:\n  a:\n    vpcid: vpc-a\n")); err == nil {
		t.Error("unknown key must be rejected")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Peers["app"].Name; got != "app" {
		t.Errorf("Name = %q", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("error expected for missing file")
	}
}
