package main

import "testing"

func TestLinkFor(t *testing.T) {
	tests := map[string]string{
		"vpcpeer":               "README",
		"vpcpeer_routes":        "routes",
		"vpcpeer_routes_apply":  "routes#vpcpeer-routes-apply",
		"vpcpeer_matrix_plan":   "matrix#vpcpeer-matrix-plan",
		"something_else_entire": "something_else_entire",
	}
	for in, want := range tests {
		if got := linkFor(in); got != want {
			t.Errorf("linkFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFixLinks(t *testing.T) {
	in := "* [vpcpeer routes apply](routes#vpcpeer-routes-apply.md)\t - apply"
	want := "* [vpcpeer routes apply](routes.md#vpcpeer-routes-apply)\t - apply"
	if got := fixLinks(in); got != want {
		t.Errorf("fixLinks() = %q, want %q", got, want)
	}
}

func TestDropSection(t *testing.T) {
	in := "## vpcpeer version\n\n### Options\n\n-h\n\n### Options inherited from parent commands\n\n-R region\n\n### SEE ALSO\n\n* link"
	want := "## vpcpeer version\n\n### Options\n\n-h\n\n### SEE ALSO\n\n* link"
	if got := dropSection(in, "### Options inherited from parent commands"); got != want {
		t.Errorf("dropSection() =\n%q\nwant\n%q", got, want)
	}
}
