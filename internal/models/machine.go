package models

// Machine describes one supported equipment type in the CAT/JCB catalog.
// Lifting machines get the stricter lifting-gear checks in the classifier
// prompt.
type Machine struct {
	Type    string   `json:"type"`
	Brand   string   `json:"brand"`
	Label   string   `json:"label"`
	Models  []string `json:"models"`
	Lifting bool     `json:"lifting"`
}

// MachineCatalog is the static reference list served by /api/machines.
var MachineCatalog = []Machine{
	{Type: "excavator", Brand: "CAT", Label: "Excavator", Models: []string{"320", "323", "330", "336", "340", "352", "395"}},
	{Type: "wheel_loader", Brand: "CAT", Label: "Wheel Loader", Models: []string{"930", "938", "950", "962", "972", "980"}},
	{Type: "bulldozer", Brand: "CAT", Label: "Bulldozer", Models: []string{"D5", "D6", "D7", "D8", "D10", "D11"}},
	{Type: "articulated_truck", Brand: "CAT", Label: "Articulated Truck", Models: []string{"725", "730", "735", "740", "745"}},
	{Type: "motor_grader", Brand: "CAT", Label: "Motor Grader", Models: []string{"12M3", "14M3", "16M3"}},
	{Type: "skid_steer", Brand: "CAT", Label: "Skid Steer", Models: []string{"226", "236", "242", "246", "262"}},
	{Type: "telehandler", Brand: "CAT", Label: "Telehandler", Models: []string{"TH306C", "TH357D", "TH408D", "TH514D"}, Lifting: true},
	{Type: "rt_forklift", Brand: "CAT", Label: "Rough Terrain Forklift", Models: []string{"P6000", "P8000", "P10000"}, Lifting: true},
	{Type: "backhoe", Brand: "JCB", Label: "Backhoe Loader", Models: []string{"3CX", "4CX", "5CX"}},
	{Type: "telehandler_jcb", Brand: "JCB", Label: "Telehandler", Models: []string{"509-42", "510-56", "540-140", "560-80"}, Lifting: true},
	{Type: "skid_steer_jcb", Brand: "JCB", Label: "Skid Steer", Models: []string{"155", "175", "190T", "205T"}},
	{Type: "excavator_jcb", Brand: "JCB", Label: "Excavator", Models: []string{"85Z-1", "100C", "130", "145", "220", "245"}},
}
