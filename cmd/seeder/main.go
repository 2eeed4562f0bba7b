package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/querent"
)

type sampleDocument struct {
	source string
	text   string
}

var documents = []sampleDocument{
	{
		source: "hypericum.txt",
		text: `Hypericum perforatum, commonly known as St John's wort, is a flowering
plant in the family Hypericaceae. It has been used in traditional European
medicine for centuries, most notably as a remedy for low mood and nervous
exhaustion. Modern preparations are standardized on hypericin and hyperforin
content, and several clinical trials have compared standardized extracts
against prescription antidepressants for mild to moderate depression.

The plant is a perennial herb with bright yellow five-petaled flowers and
distinctive translucent dots on its leaves, which give the species its name.
It flowers between late spring and early to mid summer, and thrives in
well-drained, slightly acidic soil under full sun. In some regions outside
its native range it is classified as a noxious weed because it spreads
aggressively through both seeds and creeping rhizomes.

St John's wort is known to interact with a wide range of medications because
hyperforin induces the cytochrome P450 enzyme CYP3A4. Patients taking oral
contraceptives, anticoagulants, or immunosuppressants should consult a
clinician before using any preparation of the herb.`,
	},
	{
		source: "lavandula.txt",
		text: `Lavandula angustifolia, English lavender, is a shrub native to the
Mediterranean basin. Its essential oil is widely used in aromatherapy, where
inhalation has been studied for mild anxiety and sleep disturbance. The oil
is obtained by steam distillation of the flowering spikes and owes its
character chiefly to linalool and linalyl acetate.

Lavender prefers dry, sunny positions and tolerates poor, alkaline soils
better than rich ones. Commercial cultivation is concentrated in Provence
and Bulgaria, where the plants are harvested in midsummer, just as the
flowers begin to open, to maximize the yield of essential oil.

Dried lavender flowers are also used in herbal teas and as a culinary herb,
although the flavor is assertive and easily dominates a dish. Sachets of
dried flowers have a long household history as a moth deterrent for stored
linen and woolens.`,
	},
	{
		source: "valeriana.txt",
		text: `Valeriana officinalis, valerian, is a perennial herb whose dried
rhizome and roots have been used as a mild sedative since classical
antiquity. Preparations are taken for restlessness and difficulty falling
asleep, and unlike many prescription hypnotics, valerian does not appear to
impair morning alertness at customary doses.

The root contains valerenic acid and a complex mixture of iridoid esters
called valepotriates. The characteristic odor of the dried root, often
compared to aged cheese, develops during drying and is caused by isovaleric
acid. Cats respond to valerian root much as they do to catnip.

Valerian grows readily in damp meadows and along stream banks throughout
Europe and western Asia. The plant reaches up to one and a half meters and
carries clusters of small, pale pink flowers in summer. Roots are lifted in
autumn of the second year, washed, and dried at low temperature to preserve
the volatile constituents.`,
	},
	{
		source: "matricaria.txt",
		text: `Matricaria chamomilla, German chamomile, is an annual plant of the
composite family used to prepare one of the most widely consumed herbal
teas in the world. The tea is taken for digestive complaints, mild anxiety,
and difficulty sleeping, and cooled infusions are applied topically to
soothe irritated skin.

The flower heads contain a blue essential oil rich in chamazulene and
bisabolol, both of which have documented anti-inflammatory activity. The
blue color develops only during steam distillation, as chamazulene is
formed from the colorless precursor matricin.

Chamomile is undemanding in cultivation and often appears spontaneously on
disturbed ground. Flower heads are gathered when the ray florets are
horizontal, then dried quickly in thin layers away from direct sun. People
with allergies to ragweed and other composites occasionally react to
chamomile preparations.`,
	},
}

var (
	dbPath    = flag.String("db", "./querent_db", "path to the database directory")
	workspace = flag.String("workspace", "herbs", "workspace to seed")
	srcPath   = flag.String("src", "", "file to ingest instead of the built-in documents")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	db, err := querent.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ingester, err := db.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	ctx := context.Background()

	// Determine source of seed data
	docs := documents
	if *srcPath != "" {
		text, err := os.ReadFile(*srcPath)
		if err != nil {
			panic(err)
		}
		docs = []sampleDocument{{source: filepath.Base(*srcPath), text: string(text)}}
	}

	for _, doc := range docs {
		stored, err := ingester.Ingest(ctx, *workspace, doc.source, doc.text, nil)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Ingested %s into %s\n", stored.Source, *workspace)
	}

	count, err := db.ChunkRepository().CountChunks(ctx, *workspace)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Workspace %s now holds %d chunks\n", *workspace, count)
}
